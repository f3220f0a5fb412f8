// Command nesctl controls a running nesmachine over gRPC, either from an
// interactive shell or by replaying an input script.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/meadori/nesmachine/api"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-addr host:port] [replay <script>]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	addr := flag.String("addr", "localhost:50051", "Address of the emulator's gRPC server")
	port := flag.Int("port", 1, "Controller port for replay, 1 or 2")
	delay := flag.Duration("delay", 0, "Wait this long before a replay starts")
	flag.Usage = usage
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()
	client := api.NewControllerClient(conn)

	switch args := flag.Args(); {
	case len(args) == 0:
		newShell(client, os.Stdout).run(os.Stdin)
	case args[0] == "replay" && len(args) == 2:
		if *port != 1 && *port != 2 {
			log.Fatalf("invalid controller port %d", *port)
		}
		f, err := os.Open(args[1])
		if err != nil {
			log.Fatalf("Failed to open script file: %v", err)
		}
		defer f.Close()
		if err := replay(client, f, *port-1, *delay); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		log.Println("Replay complete. Disconnected.")
	default:
		flag.Usage()
		os.Exit(2)
	}
}
