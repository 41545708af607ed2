package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	tagv "github.com/starfederation/tagv-go"
)

type decodeCmd struct {
	Hex  string `arg:"" optional:"" help:"Wire bytes as a hex string."`
	File string `short:"f" type:"existingfile" help:"Read raw wire bytes from a file instead."`
}

type encodeCmd struct {
	JSON string `arg:"" optional:"" help:"Value in the JSON form."`
	File string `short:"f" type:"existingfile" help:"Read the JSON form from a file instead."`
	Raw  bool   `help:"Write raw wire bytes to stdout instead of hex."`
}

type cli struct {
	Decode decodeCmd `cmd:"" help:"Decode wire bytes and print the value as JSON."`
	Encode encodeCmd `cmd:"" help:"Encode a JSON-form value and print the wire bytes."`
}

func main() {
	log.SetFlags(0)

	var args cli
	ctx := kong.Parse(&args,
		kong.Name("tagv"),
		kong.Description("Inspect and build self-describing type-tagged wire values."),
		kong.UsageOnError(),
	)

	switch {
	case strings.HasPrefix(ctx.Command(), "decode"):
		if err := runDecode(args.Decode); err != nil {
			log.Fatal(err)
		}
	case strings.HasPrefix(ctx.Command(), "encode"):
		if err := runEncode(args.Encode); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown command %q", ctx.Command())
	}
}

func runDecode(cmd decodeCmd) error {
	var wire []byte
	switch {
	case cmd.File != "":
		raw, err := os.ReadFile(cmd.File)
		if err != nil {
			return err
		}
		wire = raw
	case cmd.Hex != "":
		raw, err := hex.DecodeString(strings.TrimSpace(cmd.Hex))
		if err != nil {
			return fmt.Errorf("invalid hex input: %w", err)
		}
		wire = raw
	default:
		return fmt.Errorf("pass a hex string or --file")
	}

	v, err := tagv.ParseWire(wire)
	if err != nil {
		return err
	}
	out, err := tagv.ToJSON(v)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runEncode(cmd encodeCmd) error {
	var input []byte
	switch {
	case cmd.File != "":
		raw, err := os.ReadFile(cmd.File)
		if err != nil {
			return err
		}
		input = raw
	case cmd.JSON != "":
		input = []byte(cmd.JSON)
	default:
		return fmt.Errorf("pass a JSON string or --file")
	}

	v, err := tagv.FromJSON(input)
	if err != nil {
		return err
	}
	wire := v.WireBytes()
	if cmd.Raw {
		_, err := os.Stdout.Write(wire)
		return err
	}
	fmt.Println(hex.EncodeToString(wire))
	return nil
}
