// Seeds the database with the QX assets known at deployment time and a pair
// of sample users with trades, for local development.
package main

import (
	"context"

	"github.com/alexflint/go-arg"
	"github.com/google/uuid"

	"github.com/qubic-markets/qx-indexer/internal/config"
	"github.com/qubic-markets/qx-indexer/internal/database"
)

type CLIArgs struct {
	ConfigFile string `arg:"--config,env:CONFIG_FILE" default:"config.toml"`
}

const qxIssuer = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAFXIB"

var knownAssets = []struct {
	name   string
	issuer string
}{
	{"CFB", "CFBMEMZOIDEXQAUXYYSZIURADQLAPWPMNJXQSNVQZAHYVOPYUKKJBJUCTVJL"},
	{"QFT", "TFUYVBXYIYBVTEMJHAJGEJOOZHJBQFVQLTBBKMEHPEVIZFXZRPEYFUWGTIWG"},
	{"QWALLET", "QWALLETSGQVAGBHUCVVXWZXMBKQBPQQSHRYKZGEJWFVNUFCEDDPRMKTAUVHA"},
	{"QCAP", "QCAPWMYRSHLBJHSTTZQVCIBARVOASKDENASAKNOBRGPFWWKRCUVUAXYEZVOG"},
	{"VSTB001", "VALISTURNWYFQAMVLAKJVOKJQKKBXZZFEASEYCAGNCFMZARJEMMFSESEFOWM"},
	{"QX", qxIssuer},
	{"RANDOM", qxIssuer},
	{"QUTIL", qxIssuer},
	{"QTRY", qxIssuer},
	{"MLM", qxIssuer},
	{"QPOOL", qxIssuer},
	{"QEARN", qxIssuer},
	{"QVAULT", qxIssuer},
	{"MSVAULT", qxIssuer},
}

func main() {
	var args CLIArgs
	arg.MustParse(&args)

	cfg, err := config.ReadFile(args.ConfigFile)
	if err != nil {
		panic(err)
	}

	db, err := database.New(cfg.DB)
	if err != nil {
		panic(err)
	}

	if err := seed(context.Background(), db); err != nil {
		panic(err)
	}
}

func seed(ctx context.Context, db *database.DB) error {
	for _, user := range []string{"user1", "user2"} {
		if err := db.EnsureUser(ctx, user); err != nil {
			return err
		}
	}

	assets := make(map[string]*database.Asset, len(knownAssets))
	for _, a := range knownAssets {
		asset, err := db.CreateAsset(ctx, a.name, a.issuer)
		if err != nil {
			return err
		}
		assets[a.name] = asset
	}

	sampleTrades := []*database.Trade{
		{Maker: "user1", Taker: "user2", Price: 1000, Amount: 5, Tick: 100, AssetID: assets["CFB"].ID, TxHash: uuid.NewString()},
		{Maker: "user2", Taker: "user1", Price: 2000, Amount: 10, Tick: 101, AssetID: assets["QFT"].ID, TxHash: uuid.NewString()},
	}

	for _, trade := range sampleTrades {
		if _, _, err := db.CreateTrade(ctx, trade); err != nil {
			return err
		}
	}

	return nil
}
