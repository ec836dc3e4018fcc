// Command bbusecho is an example provider process: it registers
// bbus.echo.echo and answers every call by handing the argument
// straight back, exercising the SRVREG/SRVCALL/SRVREPLY provider path
// the way the built-in bbus.bbusd.echo exercises the local-method path.
package main

import (
	"flag"
	"log"

	"github.com/chisheng/busybus/pkg/busclient"
)

func main() {
	sockPath := flag.String("sockpath", "", "daemon socket path (default /tmp/bbus.sock)")
	flag.Parse()

	opts := []busclient.Option{busclient.WithName("bbusecho")}
	if *sockPath != "" {
		opts = append(opts, busclient.WithSockPath(*sockPath))
	}

	p, err := busclient.DialProvider(opts...)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer p.Close()

	if err := p.Register("echo", "echo", "s", "s"); err != nil {
		log.Fatalf("register: %v", err)
	}
	log.Println("bbusecho registered bbus.echo.echo, waiting for calls...")

	for {
		in, err := p.ListenCall()
		if err != nil {
			log.Printf("listen: %v", err)
			return
		}
		log.Printf("call %s token=%d", in.Method, in.Token)
		if err := p.Reply(in.Token, true, in.Arg); err != nil {
			log.Printf("reply: %v", err)
			return
		}
	}
}
