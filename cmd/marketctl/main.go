// Command marketctl is a small CLI client for the quote service, covering
// all four call shapes: quote (unary), stream (server-streaming), ingest
// (client-streaming), and watch (bidirectional).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"marketd/internal/quoteapi"
	"marketd/internal/server/interceptor"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "quote service address")
	token := flag.String("token", "jwt-token", "authorization token")
	timeout := flag.Duration("timeout", 30*time.Second, "call deadline")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cc, err := grpc.NewClient(*addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(quoteapi.CodecName)),
	)
	if err != nil {
		fatal(err)
	}
	defer cc.Close()
	client := quoteapi.NewClient(cc)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, interceptor.AuthHeader, *token)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "quote":
		err = runQuote(ctx, client, args)
	case "stream":
		err = runStream(ctx, client, args)
	case "ingest":
		err = runIngest(ctx, client, args)
	case "watch":
		err = runWatch(ctx, client, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: marketctl [flags] <command> [args]

commands:
  quote  SYMBOL               fetch a single quote
  stream SYMBOL               stream quotes until the server stops
  ingest SYMBOL=PRICE ...     submit price updates and print the summary
  watch  SYMBOL ...           request one quote per symbol over one stream

flags:
`)
	flag.PrintDefaults()
}

func runQuote(ctx context.Context, client *quoteapi.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("quote: exactly one symbol required")
	}
	var trailer metadata.MD
	q, err := client.GetQuote(ctx, &quoteapi.QuoteRequest{Symbol: args[0]}, grpc.Trailer(&trailer))
	if err != nil {
		return err
	}
	printQuote(q)
	if ids := trailer.Get(interceptor.TraceIDHeader); len(ids) > 0 {
		fmt.Printf("trace id: %s\n", ids[0])
	}
	return nil
}

func runStream(ctx context.Context, client *quoteapi.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("stream: exactly one symbol required")
	}
	stream, err := client.StreamQuotes(ctx, &quoteapi.QuoteRequest{Symbol: args[0]})
	if err != nil {
		return err
	}
	for {
		q, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		printQuote(q)
	}
}

func runIngest(ctx context.Context, client *quoteapi.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("ingest: at least one SYMBOL=PRICE pair required")
	}
	stream, err := client.IngestUpdates(ctx)
	if err != nil {
		return err
	}
	for _, arg := range args {
		symbol, priceStr, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("ingest: malformed pair %q, want SYMBOL=PRICE", arg)
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return fmt.Errorf("ingest: price in %q: %w", arg, err)
		}
		if err := stream.Send(&quoteapi.PriceUpdate{Symbol: symbol, Price: price}); err != nil {
			return err
		}
	}
	sum, err := stream.CloseAndRecv()
	if err != nil {
		return err
	}
	fmt.Printf("accepted %d updates\n", sum.Accepted)
	return nil
}

func runWatch(ctx context.Context, client *quoteapi.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("watch: at least one symbol required")
	}
	stream, err := client.Watch(ctx)
	if err != nil {
		return err
	}
	for _, symbol := range args {
		if err := stream.Send(&quoteapi.QuoteRequest{Symbol: symbol}); err != nil {
			return err
		}
		q, err := stream.Recv()
		if err != nil {
			return err
		}
		printQuote(q)
	}
	return stream.CloseSend()
}

func printQuote(q *quoteapi.Quote) {
	fmt.Printf("%s  %.2f  %s\n", q.Symbol, q.Price, time.Unix(q.Timestamp, 0).UTC().Format(time.RFC3339))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "marketctl: %v\n", err)
	os.Exit(1)
}
