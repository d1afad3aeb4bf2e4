// Command nc-cosmos is a small netcat-style client/listener built
// directly on the cosmos/net socket wrappers, exercised as a sample
// consumer of the library rather than a production tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ferrocore/cosmos"
	cnet "github.com/ferrocore/cosmos/net"
)

func printUsage() {
	fmt.Printf(`nc-cosmos - minimal TCP client/listener over cosmos/net

USAGE:
   nc-cosmos [OPTIONS]... <HOST> <PORT>

OPTIONS:
   -l
      Listen instead of connecting

   -u
      Accepted but has no effect; only TCP is supported

   -backlog <N>
      Listen backlog (default 16)
`)
}

var (
	listen  bool
	udp     bool
	backlog int
)

func main() {
	flagSet := flag.NewFlagSet("nc-cosmos", flag.ExitOnError)
	flagSet.Usage = printUsage
	flagSet.BoolVar(&listen, "l", false, "")
	flagSet.BoolVar(&udp, "u", false, "")
	flagSet.IntVar(&backlog, "backlog", 16, "")
	flagSet.Parse(os.Args[1:])

	args := flagSet.Args()
	if len(args) != 2 {
		printUsage()
		os.Exit(1)
	}

	host, port := args[0], args[1]
	var err error
	if listen {
		err = runListen(host, port)
	} else {
		err = runConnect(host, port)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func resolveOne(host, port string) (cnet.Address, error) {
	infos, err := cnet.Resolve(context.Background(), host, port, cnet.FamilyInet)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no addresses found for %s:%s", host, port)
	}
	return infos[0].Addr, nil
}

func runConnect(host, port string) error {
	addr, err := resolveOne(host, port)
	if err != nil {
		return err
	}
	inet, ok := addr.(cnet.InetAddress)
	if !ok {
		return fmt.Errorf("resolved address is not IPv4")
	}
	client, err := cnet.DialTCP(cnet.FamilyInet, inet)
	if err != nil {
		return err
	}
	defer client.Close()
	return pipeStdio(&client.StreamSocket)
}

func runListen(host, port string) error {
	addr, err := resolveOne(host, port)
	if err != nil {
		return err
	}
	inet, ok := addr.(cnet.InetAddress)
	if !ok {
		return fmt.Errorf("resolved address is not IPv4")
	}
	listener, err := cnet.ListenTCP(cnet.FamilyInet, inet, backlog)
	if err != nil {
		return err
	}
	defer listener.Close()
	client, _, err := listener.Accept(cnet.FamilyInet, cosmos.CloseOnExec(true))
	if err != nil {
		return err
	}
	defer client.Close()
	return pipeStdio(&client.StreamSocket)
}

func pipeStdio(s *cnet.StreamSocket) error {
	done := make(chan error, 2)
	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := s.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if err != nil {
				done <- ignoreEOF(err)
				return
			}
		}
	}()
	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if _, werr := s.Write(buf[:n]); werr != nil {
					done <- werr
					return
				}
			}
			if err != nil {
				done <- ignoreEOF(err)
				return
			}
		}
	}()
	return <-done
}

func ignoreEOF(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}
