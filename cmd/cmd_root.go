package cmd

import (
	"albumsync/pkg/util"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   util.AppName,
		Short: "相册到 CMS 的映射同步服务",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		Version: util.GetVersion().Version,
	}
	cmd.AddCommand(NewServerCommand())
	cmd.AddCommand(NewSyncCommand())
	return cmd
}
