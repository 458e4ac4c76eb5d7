// 运维工具：管理 _region_overrides（人工地域人口覆盖）的交互式 CLI
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ikemen-api/internal/migrate"
	"ikemen-api/internal/normalize"
	"ikemen-api/internal/store"
	"ikemen-api/internal/utils"

	"github.com/joho/godotenv"
)

func printHelp() {
	fmt.Println("commands:")
	fmt.Println("  set <name> <pref> <male> <total> [areaKm2]")
	fmt.Println("  del <name>")
	fmt.Println("  get <name>")
	fmt.Println("  list [limit]")
	fmt.Println("  help")
	fmt.Println("  quit")
}

func main() {
	_ = godotenv.Load(".env")
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		fmt.Println("db open error:", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		fmt.Println("schema error:", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	ctx := context.Background()

	printHelp()
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "set", "add":
			if len(fields) < 5 {
				fmt.Println("usage: set <name> <pref> <male> <total> [areaKm2]")
				continue
			}
			male, err1 := strconv.ParseInt(fields[3], 10, 64)
			total, err2 := strconv.ParseInt(fields[4], 10, 64)
			if err1 != nil || err2 != nil || male < 0 || total < 0 {
				fmt.Println("bad counts")
				continue
			}
			o := store.Override{
				// 覆盖键与查询链路保持同一规范形，否则永远不会命中
				Name:  normalize.Canonicalize(fields[1]),
				Pref:  fields[2],
				Male:  male,
				Total: total,
			}
			if len(fields) >= 6 {
				if a, err := strconv.ParseFloat(fields[5], 64); err == nil && a >= 0 {
					o.AreaKm2 = &a
				}
			}
			if err := st.UpsertOverride(ctx, o); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("ok")
			}
		case "del":
			if len(fields) < 2 {
				fmt.Println("usage: del <name>")
				continue
			}
			if err := st.DeleteOverride(ctx, normalize.Canonicalize(fields[1])); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("ok")
			}
		case "get":
			if len(fields) < 2 {
				fmt.Println("usage: get <name>")
				continue
			}
			o, err := st.LookupOverride(ctx, normalize.Canonicalize(fields[1]))
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if o == nil {
				fmt.Println("not found")
				continue
			}
			printOverride(*o)
		case "list":
			limit := 50
			if len(fields) >= 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
					limit = n
				}
			}
			rows, err := st.ListOverrides(ctx, limit)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, o := range rows {
				printOverride(o)
			}
			fmt.Printf("(%d rows)\n", len(rows))
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func printOverride(o store.Override) {
	area := "-"
	if o.AreaKm2 != nil {
		area = strconv.FormatFloat(*o.AreaKm2, 'f', -1, 64)
	}
	fmt.Printf("%s | %s | male=%d total=%d area_km2=%s\n", o.Name, o.Pref, o.Male, o.Total, area)
}
