package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/host"
	"github.com/rileyhilliard/hostkit/internal/mount"
)

// Command-specific flags
var (
	runSudoFlag     bool
	mountServerFlag string
	mountExportFlag string
	mountPointFlag  string
	dropPortFlag    int
	resolveIPv6Flag bool
)

// runCmd executes a command on the configured host.
var runCmd = &cobra.Command{
	Use:   "run [command]",
	Short: "Run a command on the configured host",
	Long: `Execute a command on the local machine, or on the remote host
through the configured transport.

Examples:
  hostkit run "ls -l /mnt/t"
  hostkit run --sudo "sysctl -w sunrpc.tcp_slot_table_entries=128"
  hostkit run --host 192.168.0.11 "uname -a"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.Run(strings.Join(args, " "), exec.RunOpts{Sudo: runSudoFlag})
		if err != nil {
			return err
		}
		fmt.Print(res.Stdout)
		return nil
	},
}

// mountCmd mounts the configured NFS export.
var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Mount the NFS export",
	Long: `Mount the configured NFS export on the mount point, creating the
mount point and the data directory when missing.

Examples:
  hostkit mount
  hostkit mount --server 10.0.0.1 --export /vol1
  hostkit mount --mtpoint /mnt/scratch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		mtpoint, err := s.Mount(&mount.Options{
			Server:     mountServerFlag,
			Export:     mountExportFlag,
			MountPoint: mountPointFlag,
		})
		if err != nil {
			return err
		}
		if mtpoint != "" {
			fmt.Println(mtpoint)
		}
		return nil
	},
}

// umountCmd unmounts the configured mount point.
var umountCmd = &cobra.Command{
	Use:   "umount",
	Short: "Unmount the NFS export",
	Long: `Force-unmount the configured mount point, retrying a few times.
An already-unmounted path counts as success.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		s.Unmount()
		return nil
	},
}

// dropCmd installs a packet-drop rule.
var dropCmd = &cobra.Command{
	Use:   "drop <address>",
	Short: "Drop outbound TCP traffic to an address",
	Long: `Simulate a network partition by discarding outbound TCP packets to
the given address and port.

Examples:
  hostkit drop 10.0.0.1
  hostkit drop 10.0.0.1 --port 2049`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		// Deliberately no Close: the rule must outlive the command so a
		// later 'hostkit reset' clears it.
		return s.DropTraffic(args[0], dropPortFlag)
	},
}

// resetCmd clears all packet-filter rules.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all packet-filter rules",
	Long:  `Flush all rules and delete all custom chains, best-effort.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		s.ResetNetwork()
		return nil
	},
}

// routeCmd prints routing information for an address.
var routeCmd = &cobra.Command{
	Use:   "route <address>",
	Short: "Show routing information for an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		route := s.RouteTo(args[0])
		if route.Device == "" {
			return fmt.Errorf("no route found for %s", args[0])
		}
		fmt.Printf("gateway: %s\ndevice: %s\nsource: %s\n",
			orDash(route.Gateway), route.Device, orDash(route.Source))
		return nil
	},
}

// resolveCmd resolves a hostname to a non-loopback address.
var resolveCmd = &cobra.Command{
	Use:   "resolve [host]",
	Short: "Resolve a hostname to a non-loopback address",
	Long: `Resolve a hostname (or the local hostname if none given) to a
non-loopback address of the requested family.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		addr, err := host.ResolveAddress(name, resolveIPv6Flag)
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	runCmd.Flags().BoolVar(&runSudoFlag, "sudo", false, "run with elevated privilege")
	mountCmd.Flags().StringVar(&mountServerFlag, "server", "", "NFS server (overrides config)")
	mountCmd.Flags().StringVar(&mountExportFlag, "export", "", "export path (overrides config)")
	mountCmd.Flags().StringVar(&mountPointFlag, "mtpoint", "", "mount point (overrides config)")
	dropCmd.Flags().IntVar(&dropPortFlag, "port", 2049, "destination port")
	resolveCmd.Flags().BoolVar(&resolveIPv6Flag, "ipv6", false, "resolve an IPv6 address")

	rootCmd.AddCommand(runCmd, mountCmd, umountCmd, dropCmd, resetCmd, routeCmd, resolveCmd)
}
