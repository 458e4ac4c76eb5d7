// 包 version：构建版本信息，由构建脚本通过 ldflags 注入
package version

// Commit：构建时注入的提交哈希；本地构建保持 dev
// 注入方式：-ldflags "-X ikemen-api/internal/version.Commit=$(git rev-parse --short HEAD)"
var Commit = "dev"
