package config

const (
	defaultBuilderBinary          = "mkosi"
	defaultBuilderTimeoutSeconds  = 3600
	defaultDistribution           = "centos"
	defaultRelease                = "7"
	defaultRootPassword           = "hello"
	defaultBtrfsBinary            = "btrfs"
	defaultBtrfsTimeoutSeconds    = 300
	defaultCompressTool           = "zstd"
	defaultCompressLevel          = 3
	defaultCompressFallbackBinary = "gzip"
	defaultCompressTimeoutSeconds = 1800
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

func defaultPackages() []string {
	return []string{"yum", "systemd", "yum-utils", "passwd"}
}

// Default returns a Config populated with repository defaults. The workspace
// root defaults to the current directory, matching the tool's working-directory
// oriented invocation style.
func Default() Config {
	return Config{
		Workspace: Workspace{
			Root: ".",
		},
		Builder: Builder{
			Binary:         defaultBuilderBinary,
			TimeoutSeconds: defaultBuilderTimeoutSeconds,
			Distribution:   defaultDistribution,
			Release:        defaultRelease,
			Packages:       defaultPackages(),
			RootPassword:   defaultRootPassword,
		},
		Btrfs: Btrfs{
			Binary:         defaultBtrfsBinary,
			TimeoutSeconds: defaultBtrfsTimeoutSeconds,
		},
		Compress: Compress{
			Tool:           defaultCompressTool,
			Level:          defaultCompressLevel,
			FallbackBinary: defaultCompressFallbackBinary,
			TimeoutSeconds: defaultCompressTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
