package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/DrDelphi/EgldLotteryBot/bot"
	"github.com/DrDelphi/EgldLotteryBot/chain"
	"github.com/DrDelphi/EgldLotteryBot/config"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/DrDelphi/EgldLotteryBot/network"
	"github.com/DrDelphi/EgldLotteryBot/utils"
	logger "github.com/ElrondNetwork/elrond-go-logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pterm/pterm"
	"github.com/urfave/cli"
)

var log = logger.GetOrCreate("main")

var (
	errNotEnoughAccounts = errors.New("not enough accounts")
	errInvalidPlayers    = errors.New("number of players can not be negative")
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path of the JSON configuration file",
		Value: utils.DefaultConfigPath,
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "logger level, e.g. *:INFO or *:DEBUG,network:TRACE",
		Value: "*:INFO",
	}
	playersFlag = cli.IntFlag{
		Name:  "players",
		Usage: "number of accounts entering the simulated lottery",
		Value: 3,
	}
	valueFlag = cli.StringFlag{
		Name:  "value",
		Usage: "entry value in EGLD",
		Value: "0.02",
	}
	accountFlag = cli.IntFlag{
		Name:  "account",
		Usage: "index of the account sending the transaction",
		Value: 1,
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "EgldLotteryBot"
	app.Usage = "lottery smart contract on a simulated or real Elrond ledger, with a Telegram front-end"
	app.Flags = []cli.Flag{configFlag, logLevelFlag}
	app.Before = func(c *cli.Context) error {
		return logger.SetLogLevel(c.GlobalString(logLevelFlag.Name))
	}
	app.Commands = []cli.Command{
		{
			Name:   "simulate",
			Usage:  "deploys a lottery on the simulator, lets accounts enter and picks the winner",
			Flags:  []cli.Flag{playersFlag, valueFlag},
			Action: simulate,
		},
		{
			Name:   "players",
			Usage:  "lists the players of the configured lottery",
			Action: listPlayers,
		},
		{
			Name:   "enter",
			Usage:  "enters the configured lottery",
			Flags:  []cli.Flag{accountFlag, valueFlag},
			Action: enter,
		},
		{
			Name:   "pick-winner",
			Usage:  "picks the winner of the configured lottery with the manager account",
			Action: pickWinner,
		},
		{
			Name:   "bot",
			Usage:  "starts the Telegram bot",
			Action: startBot,
		},
	}

	return app
}

// loadConfig reads the configuration file; a missing file means defaults
func loadConfig(c *cli.Context) (*data.AppConfig, string, error) {
	path := c.GlobalString(configFlag.Name)
	cfg, err := config.NewConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("config file not found, using defaults", "path", path)
		cfg = &data.AppConfig{}
		config.ApplyDefaults(cfg)
		return cfg, path, nil
	}

	return cfg, path, err
}

func newSimulator(cfg *data.AppConfig) (*chain.Simulator, error) {
	balance, err := utils.ToDenominated(cfg.Simulator.Balance)
	if err != nil {
		return nil, err
	}
	importBalance, err := utils.ToDenominated(cfg.Simulator.ImportBalance)
	if err != nil {
		return nil, err
	}

	return chain.NewSimulator(chain.Config{
		Mnemonic:      cfg.Seedphrase,
		Accounts:      cfg.Simulator.Accounts,
		Balance:       balance,
		ImportBalance: importBalance,
		GasPrice:      cfg.Simulator.GasPrice,
	})
}

// openLottery connects to the configured ledger. The simulator keeps its
// state in memory, so a fresh lottery is deployed there by the first account
func openLottery(ctx context.Context, cfg *data.AppConfig, metrics *network.Metrics) (*network.LotteryManager, error) {
	var provider network.Provider
	switch cfg.Provider {
	case utils.ProviderProxy:
		pp, err := network.NewProxyProvider(ctx, cfg, cfg.Simulator.Accounts)
		if err != nil {
			return nil, err
		}
		provider = pp
	default:
		sim, err := newSimulator(cfg)
		if err != nil {
			return nil, err
		}
		cfg.Seedphrase = sim.Mnemonic()
		provider = sim
	}

	client, err := network.NewClient(provider)
	if err != nil {
		return nil, err
	}
	client.SetMetrics(metrics)

	if cfg.Provider == utils.ProviderProxy {
		return network.NewLotteryManager(client, cfg.ContractAddress)
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	var minimumEntry *big.Int
	if cfg.Lottery.MinimumEntry != "" {
		if minimumEntry, err = utils.ToDenominated(cfg.Lottery.MinimumEntry); err != nil {
			return nil, err
		}
	}

	lottery, _, err := network.DeployLottery(ctx, client, accounts[0], utils.DeployGasLimit, minimumEntry)

	return lottery, err
}

func simulate(c *cli.Context) error {
	players := c.Int(playersFlag.Name)
	if players < 0 {
		return fmt.Errorf("%w: %d", errInvalidPlayers, players)
	}

	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Provider = utils.ProviderSimulator

	if players+1 > cfg.Simulator.Accounts {
		cfg.Simulator.Accounts = players + 1
	}

	value, err := utils.ToDenominated(c.String(valueFlag.Name))
	if err != nil {
		return err
	}

	ctx := context.Background()
	lottery, err := openLottery(ctx, cfg, nil)
	if err != nil {
		return err
	}
	client := lottery.Client()
	pterm.Success.Printfln("lottery deployed at %s", lottery.Address())

	accounts, err := client.Accounts(ctx)
	if err != nil {
		return err
	}

	for _, account := range accounts[1 : players+1] {
		if _, err = lottery.Enter(ctx, network.TxOptions{From: account, Value: value}); err != nil {
			return fmt.Errorf("%s can not enter: %w", account, err)
		}
	}

	if err = printLottery(ctx, lottery); err != nil {
		return err
	}

	before := make(map[string]*big.Int)
	for _, account := range accounts[1 : players+1] {
		if before[account], err = client.GetBalance(ctx, account); err != nil {
			return err
		}
	}

	winner, receipt, err := lottery.PickWinner(ctx, network.TxOptions{From: accounts[0]})
	if err != nil {
		return err
	}

	after, err := client.GetBalance(ctx, winner)
	if err != nil {
		return err
	}

	won := new(big.Int).Sub(after, before[winner])
	pterm.DefaultBox.WithTitle(pterm.LightGreen("|WINNER|")).WithTitleTopCenter().
		Println(pterm.Sprintfln("%s won %s EGLD\ntx %s", pterm.LightCyan(winner), utils.FromDenominated(won).String(), receipt.Hash))

	return printLottery(ctx, lottery)
}

func printLottery(ctx context.Context, lottery *network.LotteryManager) error {
	info, err := lottery.GetContractInfo(ctx)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Lottery " + info.Address)
	pterm.Info.Printfln("manager %s, minimum entry %s EGLD, prize pool %s EGLD",
		info.Manager, utils.FromDenominated(info.MinimumEntry).String(), utils.FromDenominated(info.Balance).String())

	table := pterm.TableData{{"#", "Player"}}
	for i, player := range info.Players {
		table = append(table, []string{fmt.Sprint(i + 1), player})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func listPlayers(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	lottery, err := openLottery(context.Background(), cfg, nil)
	if err != nil {
		return err
	}

	return printLottery(context.Background(), lottery)
}

func enter(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	value, err := utils.ToDenominated(c.String(valueFlag.Name))
	if err != nil {
		return err
	}

	ctx := context.Background()
	lottery, err := openLottery(ctx, cfg, nil)
	if err != nil {
		return err
	}

	accounts, err := lottery.Client().Accounts(ctx)
	if err != nil {
		return err
	}
	index := c.Int(accountFlag.Name)
	if index < 0 || index >= len(accounts) {
		return fmt.Errorf("%w: %d", errNotEnoughAccounts, index)
	}

	receipt, err := lottery.Enter(ctx, network.TxOptions{
		From:     accounts[index],
		Value:    value,
		GasLimit: cfg.Lottery.GasLimit,
	})
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s entered with %s EGLD, tx %s", accounts[index], utils.FromDenominated(value).String(), receipt.Hash)

	return printLottery(ctx, lottery)
}

func pickWinner(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	lottery, err := openLottery(ctx, cfg, nil)
	if err != nil {
		return err
	}

	accounts, err := lottery.Client().Accounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return errNotEnoughAccounts
	}

	winner, receipt, err := lottery.PickWinner(ctx, network.TxOptions{From: accounts[0]})
	if err != nil {
		return err
	}
	pterm.Success.Printfln("winner %s, tx %s", winner, receipt.Hash)

	return nil
}

func startBot(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *network.Metrics
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		metrics = network.NewMetrics(reg)
		go serveMetrics(cfg.Metrics.Listen, reg)
	}

	lottery, err := openLottery(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	log.Info("lottery ready", "address", lottery.Address(), "provider", cfg.Provider)

	b, err := bot.NewBot(ctx, cfg, path, lottery)
	if err != nil {
		return err
	}
	if err = b.StartTasks(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("bot stopped")

	return nil
}

func serveMetrics(listen string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.Info("serving metrics", "listen", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
