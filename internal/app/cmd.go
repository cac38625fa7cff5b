package app

// Command 表示应用的启动模式。
type Command string

const (
	// CommandServe 表示以 API 服务器模式启动。
	CommandServe Command = "serve"
	// CommandMigrate 表示执行数据库迁移。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck 表示执行健康检查。
	// 供 distroless 容器环境的 Docker healthcheck 使用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand 从命令行参数解析子命令。
// 参数为空或不认识的命令时回退到 CommandServe。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
