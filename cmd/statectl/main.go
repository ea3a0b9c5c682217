/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/config"
	"github.com/aliasqar1/tets/internal/database"
	"github.com/aliasqar1/tets/internal/models"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	app := cli.NewApp()
	app.Name = "statectl"
	app.Usage = "Inspect and repair the bot's state files without a gateway connection"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "data-file", Usage: "Primary state document (overrides DATA_FILE)"},
		&cli.StringFlag{Name: "stream-file", Usage: "Streamer state document (overrides STREAM_FILE)"},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "init",
			Usage:  "Create both state documents with every collection present",
			Action: runInit,
		},
		{
			Name:  "balances",
			Usage: "Print the wallet report, richest first",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "user", Usage: "Only show this member id"},
			},
			Action: runBalances,
		},
		{
			Name:  "pay",
			Usage: "Add coins to or remove coins from a wallet",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "user", Required: true, Usage: "Member id"},
				&cli.Int64Flag{Name: "amount", Required: true, Usage: "Positive amount of coins"},
				&cli.StringFlag{Name: "action", Value: api.ActionAdd, Usage: "add or rev"},
			},
			Action: runPay,
		},
		{
			Name:  "warns",
			Usage: "Show a member's warning count",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "user", Required: true, Usage: "Member id"},
			},
			Action: runWarns,
		},
		{
			Name:   "streamers",
			Usage:  "List registered streamers",
			Action: runStreamers,
		},
		{
			Name:   "contests",
			Usage:  "List contests and their status",
			Action: runContests,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("Command failed", zap.Error(err))
	}
}

// openStore loads the state documents named by the environment and global flags
func openStore(c *cli.Context) (*database.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if v := c.String("data-file"); v != "" {
		cfg.Store.DataFile = v
	}
	if v := c.String("stream-file"); v != "" {
		cfg.Store.StreamFile = v
	}
	return common.InitializeDatabaseOnly(c.Context, cfg)
}

func runInit(c *cli.Context) error {
	dbService, err := openStore(c)
	if err != nil {
		return err
	}
	if err := dbService.Close(); err != nil {
		return fmt.Errorf("failed to write state documents: %w", err)
	}
	fmt.Println("State documents initialized")
	return nil
}

func runBalances(c *cli.Context) error {
	dbService, err := openStore(c)
	if err != nil {
		return err
	}
	defer dbService.Close()

	entries, err := common.WalletReport(dbService, c.String("user"), zap.L())
	if err != nil {
		return err
	}

	common.PrintHeader("WALLET REPORT", common.DefaultWidth)
	var total int64
	for i, e := range entries {
		total += e.Balance
		badge := "-"
		if e.Badge > 0 {
			badge = fmt.Sprintf("%d", e.Badge)
		}
		fmt.Printf("%s %-20s: %15s coins (badge: %s, warns: %d)\n",
			common.BoxPrefix(i == len(entries)-1),
			e.UserId,
			common.FormatCoins(e.Balance),
			badge,
			e.Warns)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d wallets holding %s coins", len(entries), common.FormatCoins(total)), common.DefaultWidth)
	return nil
}

func runPay(c *cli.Context) error {
	amount := c.Int64("amount")
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	delta := amount
	switch strings.ToLower(c.String("action")) {
	case api.ActionAdd:
	case api.ActionRevoke:
		delta = -amount
	default:
		return fmt.Errorf("action must be %q or %q", api.ActionAdd, api.ActionRevoke)
	}

	dbService, err := openStore(c)
	if err != nil {
		return err
	}
	defer dbService.Close()

	user := c.String("user")
	balance, err := dbService.AdjustBalance(c.Context, user, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}

	zap.L().Info("Adjusted balance from the command line",
		zap.String("user_id", user),
		zap.Int64("delta", delta),
		zap.Int64("balance", balance))
	fmt.Printf("Balance of %s is now %s coins\n", user, common.FormatCoins(balance))
	return nil
}

func runWarns(c *cli.Context) error {
	dbService, err := openStore(c)
	if err != nil {
		return err
	}
	defer dbService.Close()

	user := c.String("user")
	fmt.Printf("%s has %d warns\n", user, dbService.GetWarns(c.Context, user))
	return nil
}

func runStreamers(c *cli.Context) error {
	dbService, err := openStore(c)
	if err != nil {
		return err
	}
	defer dbService.Close()

	var ids []string
	profiles := make(map[string]models.StreamerProfile)
	dbService.ViewStreams(func(doc *models.StreamDocument) {
		for id, p := range doc.Streamers {
			ids = append(ids, id)
			profiles[id] = *p
		}
	})
	sort.Strings(ids)

	common.PrintHeader("STREAMERS", common.DefaultWidth)
	for i, id := range ids {
		p := profiles[id]
		isLast := i == len(ids)-1
		fmt.Printf("%s %s (since %s)\n", common.BoxPrefix(isLast), id, p.StartedAt.Format("2006-01-02"))
		fmt.Printf("%s   streams: %d, violations: %d, invites: %d, code: %s\n",
			common.BoxDetailPrefix(isLast), p.StreamsCount, p.Violations, p.InviteCount, p.InviteCode)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d streamers", len(ids)), common.DefaultWidth)
	return nil
}

func runContests(c *cli.Context) error {
	dbService, err := openStore(c)
	if err != nil {
		return err
	}
	defer dbService.Close()

	var contests []models.Contest
	dbService.View(func(snap *models.Snapshot) {
		for _, contest := range snap.Contests {
			contests = append(contests, *contest.Clone())
		}
	})
	sort.Slice(contests, func(i, j int) bool {
		return contests[i].CreatedAt.Before(contests[j].CreatedAt)
	})

	open := 0
	common.PrintHeader("CONTESTS", common.DefaultWidth)
	for i := range contests {
		contest := &contests[i]
		status := models.ContestClosed
		if !contest.IsClosed() {
			status = models.ContestOpen
			open++
		}
		isLast := i == len(contests)-1
		fmt.Printf("%s #%s %-6s prize %s, ends %s\n",
			common.BoxPrefix(isLast),
			contest.ContestId,
			status,
			common.FormatCoins(contest.Prize),
			contest.EndsAt().Format(time.RFC3339))
		fmt.Printf("%s   submissions: %d, winners: %d\n",
			common.BoxDetailPrefix(isLast), len(contest.Submissions), len(contest.Winners))
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d contests, %d open", len(contests), open), common.DefaultWidth)
	return nil
}
