// Command bbuscall is a one-shot caller: it dials the daemon, invokes
// one method with an optional string argument, prints the reply, and
// exits.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chisheng/busybus/pkg/busclient"
	"github.com/chisheng/busybus/pkg/object"
)

var (
	sockPath string
	argStr   string
)

var rootCmd = &cobra.Command{
	Use:   "bbuscall <method.path>",
	Short: "Call a busybus method once and print the reply",
	Args:  cobra.ExactArgs(1),
	RunE:  runCall,
}

func init() {
	rootCmd.Flags().StringVar(&sockPath, "sockpath", "", "daemon socket path (default /tmp/bbus.sock)")
	rootCmd.Flags().StringVar(&argStr, "arg", "", "string argument to pass (descr \"s\"); omit for no argument")
}

func runCall(cmd *cobra.Command, args []string) error {
	opts := []busclient.Option{busclient.WithName("bbuscall")}
	if sockPath != "" {
		opts = append(opts, busclient.WithSockPath(sockPath))
	}
	cl, err := busclient.Dial(opts...)
	if err != nil {
		return fmt.Errorf("bbuscall: dial: %w", err)
	}
	defer cl.Close()

	var reply *object.Object
	if argStr != "" {
		reply, err = cl.Call(args[0], "s", argStr)
	} else {
		reply, err = cl.Call(args[0], "")
	}
	if err != nil {
		return fmt.Errorf("bbuscall: %w", err)
	}

	if reply != nil && reply.RawSize() > 0 {
		vals, err := reply.Parse("s")
		if err == nil {
			fmt.Println(vals[0])
			return nil
		}
		fmt.Printf("% x\n", reply.RawData())
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
