package bot

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/DrDelphi/EgldLotteryBot/config"
	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/DrDelphi/EgldLotteryBot/network"
	"github.com/DrDelphi/EgldLotteryBot/utils"
	logger "github.com/ElrondNetwork/elrond-go-logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

var log = logger.GetOrCreate("bot")

// Bot - holds the required fields of the bot application
type Bot struct {
	tgBot   *tgbotapi.BotAPI
	cfg     *data.AppConfig
	cfgPath string
	client  *network.Client
	lottery *network.LotteryManager
	manager string

	mu              sync.RWMutex
	info            *data.LotteryInfo
	lastInfoMessage int
	users           map[int64]*data.User
	tgUsers         map[int64]*data.Telegram
}

// NewBot - creates a new Bot object. The wallet at index 0 of the seed is the lottery manager
func NewBot(ctx context.Context, cfg *data.AppConfig, cfgPath string, lottery *network.LotteryManager) (*Bot, error) {
	tgBot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.Error("can not create telegram bot", "error", err)
		return nil, err
	}

	client := lottery.Client()
	manager, err := client.ImportKey(ctx, utils.GetPrivateKeyFromSeed(cfg.Seedphrase, managerKeyIndex))
	if err != nil {
		log.Error("can not unlock manager wallet", "error", err)
		return nil, err
	}

	telegramBot := &Bot{
		tgBot:   tgBot,
		cfg:     cfg,
		cfgPath: cfgPath,
		client:  client,
		lottery: lottery,
		manager: manager,
		users:   make(map[int64]*data.User),
		tgUsers: make(map[int64]*data.Telegram),
	}

	return telegramBot, nil
}

// StartTasks - starts bot's tasks. They stop when ctx is done
func (b *Bot) StartTasks(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.tgBot.GetUpdatesChan(u)
	if err != nil {
		log.Error("can not get Telegram bot updates", "error", err)
		return err
	}
	updates.Clear()

	go b.refreshInfo(ctx)

	go func() {
		<-ctx.Done()
		b.tgBot.StopReceivingUpdates()
	}()

	go func() {
		for update := range updates {
			if update.Message != nil {
				if update.Message.Chat.IsPrivate() {
					if update.Message.IsCommand() {
						b.privateCommandReceived(update.Message)
						continue
					}
					b.privateMessageReceived(update.Message)
				} else {
					b.groupMessageReceived(update.Message)
				}
			}
			if update.CallbackQuery != nil {
				b.callbackQueryReceived(update.CallbackQuery)
			}
		}
	}()

	return nil
}

func (b *Bot) groupMessageReceived(message *tgbotapi.Message) {
	b.mu.Lock()
	if b.cfg.Bot.GroupID == 0 && message.Chat.UserName == b.cfg.Bot.Group {
		b.cfg.Bot.GroupID = message.Chat.ID
		if err := config.Save(b.cfg, b.cfgPath); err != nil {
			log.Warn("can not save group id", "error", err)
		}
	}
	b.mu.Unlock()

	if message.IsCommand() {
		b.tgBot.Send(tgbotapi.DeleteMessageConfig{ChatID: message.Chat.ID, MessageID: message.MessageID})
	}
}

// refreshInfo keeps the cached lottery info current and updates the group
// message whenever the number of players changes
func (b *Bot) refreshInfo(ctx context.Context) {
	ticker := time.NewTicker(time.Second * infoRefreshSeconds)
	defer ticker.Stop()

	lastPlayers := -1
	for {
		info, err := b.lottery.GetContractInfo(ctx)
		if err != nil {
			b.reportError("Unable to get contract info. Error: " + err.Error())
		} else {
			b.mu.Lock()
			b.info = info
			messageID := b.lastInfoMessage
			b.mu.Unlock()

			if len(info.Players) != lastPlayers {
				if messageID == 0 || lastPlayers <= 0 {
					if msg, err := b.sendToGroup(lotteryInfoText(info, "")); err == nil {
						b.mu.Lock()
						b.lastInfoMessage = msg.MessageID
						b.mu.Unlock()
					}
				} else {
					msg := tgbotapi.NewEditMessageText(b.groupID(), messageID, lotteryInfoText(info, ""))
					msg.ParseMode = tgbotapi.ModeMarkdown
					b.tgBot.Send(msg)
				}
				lastPlayers = len(info.Players)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Bot) groupID() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.cfg.Bot.GroupID
}

func (b *Bot) cachedInfo() *data.LotteryInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.info
}

func (b *Bot) reportError(text string) {
	msg := tgbotapi.NewMessage(b.cfg.Bot.Owner, "⛔️ "+text)
	b.tgBot.Send(msg)
}

func (b *Bot) sendToGroup(text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(b.groupID(), text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	res, err := b.tgBot.Send(msg)
	if err != nil {
		log.Warn("error sending message to group", "message", text, "error", err)
	}

	return res, err
}

func (b *Bot) sendMessage(userID int64, text string) (tgbotapi.Message, error) {
	b.mu.RLock()
	user, ok := b.users[userID]
	tgUser, tgOk := b.tgUsers[userID]
	b.mu.RUnlock()
	if user == nil || !ok {
		return tgbotapi.Message{}, errUserNotFound
	}

	name := ""
	if tgUser != nil && tgOk {
		name = fmt.Sprintf("@%s (%s %s)", tgUser.UserName, tgUser.FirstName, tgUser.LastName)
		log.Info("sent message", "user", name, "message", text)
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	res, err := b.tgBot.Send(msg)
	if err != nil {
		log.Warn("error sending message", "user", name, "message", text, "error", err.Error())
	}

	return res, err
}

// lotteryInfoText renders the lottery state. A non-empty wallet adds the
// number of entries of that wallet
func lotteryInfoText(info *data.LotteryInfo, wallet string) string {
	if info == nil {
		return ""
	}

	text := "`Lottery Info`\n\n"
	text += fmt.Sprintf("`Contract:` %s\n", utils.ShortenAddress(info.Address))
	text += fmt.Sprintf("`Manager:` %s\n", utils.ShortenAddress(info.Manager))
	text += fmt.Sprintf("`Minimum entry:` %s eGLD\n", utils.FromDenominated(info.MinimumEntry).String())
	text += fmt.Sprintf("`Prize pool:` %s eGLD\n", utils.FromDenominated(info.Balance).String())
	text += fmt.Sprintf("`Players:` %v\n", len(info.Players))

	if wallet != "" {
		entries := 0
		for _, player := range info.Players {
			if player == wallet {
				entries++
			}
		}
		switch entries {
		case 0:
		case 1:
			text += "\nYou have `1` entry"
		default:
			text += fmt.Sprintf("\nYou have `%v` entries", entries)
		}
	}

	return text
}

// playersText lists the players in entry order
func playersText(players []string, names map[string]string) string {
	if len(players) == 0 {
		return "🚫 Nobody entered this round yet"
	}

	var sb strings.Builder
	sb.WriteString("`Players`\n\n")
	for i, player := range players {
		name, ok := names[player]
		if !ok {
			name = utils.ShortenAddress(player)
		}
		fmt.Fprintf(&sb, "%v. %s\n", i+1, name)
	}

	return sb.String()
}

// statusText formats a transaction status the way it is shown in chats
func statusText(status string) string {
	switch status {
	case data.StatusPending:
		return status + " ⌛️"
	case data.StatusSuccess:
		return status + " ✅"
	default:
		return status + " ❌"
	}
}

func (b *Bot) sendLotteryInfo(user *data.User) {
	info := b.cachedInfo()
	if info == nil {
		b.sendMessage(user.ID, "⌛️ Lottery info is not available yet")
		return
	}

	b.sendMessage(user.ID, lotteryInfoText(info, user.Wallet))
}

func (b *Bot) sendPlayers(user *data.User) {
	players, err := b.lottery.GetPlayers(context.Background(), user.Wallet)
	if err != nil {
		b.sendMessage(user.ID, "❗️ Network error. Please contact an administrator ("+err.Error()+")")
		return
	}

	b.sendMessage(user.ID, strings.ReplaceAll(playersText(players, b.playerNames()), "_", "\\_"))
}

func (b *Bot) playerNames() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make(map[string]string, len(b.users))
	for id, user := range b.users {
		if tgUser, ok := b.tgUsers[id]; ok {
			names[user.Wallet] = utils.FormatDbTgUser(tgUser)
		}
	}

	return names
}

// entryValue parses an amount given by a user, or returns the contract minimum
func (b *Bot) entryValue(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount != "" {
		return utils.ToDenominated(amount)
	}

	if info := b.cachedInfo(); info != nil && info.MinimumEntry != nil {
		return info.MinimumEntry, nil
	}

	return b.lottery.GetMinimumEntry(context.Background())
}

func (b *Bot) enterLottery(user *data.User, value *big.Int) {
	ctx := context.Background()
	balance, err := b.client.GetBalance(ctx, user.Wallet)
	if err != nil {
		b.sendMessage(user.ID, "❗️ Network error. Please contact an administrator ("+err.Error()+")")
		return
	}

	fee := txFee(b.cfg.Lottery.GasLimit, b.cfg.Simulator.GasPrice)
	if balance.Cmp(new(big.Int).Add(value, fee)) < 0 {
		b.sendMessage(user.ID, fmt.Sprintf("⛔️ Not enough balance. You have %s eGLD and you need %s for the entry and %s for the transaction fee",
			utils.FromDenominated(balance).String(), utils.FromDenominated(value).String(), utils.FromDenominated(fee).String()))
		return
	}

	format := "`Enter lottery` - Status: "
	res, err := b.sendMessage(user.ID, format+statusText(data.StatusPending))
	if err != nil {
		return
	}

	go func() {
		receipt, err := b.lottery.Enter(ctx, network.TxOptions{
			From:     user.Wallet,
			Value:    value,
			GasLimit: b.cfg.Lottery.GasLimit,
		})
		b.editTxStatus(user.ID, res.MessageID, format, receipt, err)
	}()
}

func (b *Bot) pickWinner(owner *data.User) {
	ctx := context.Background()
	go func() {
		winner, receipt, err := b.lottery.PickWinner(ctx, network.TxOptions{
			From:     b.manager,
			GasLimit: utils.PickWinnerGasLimit,
		})
		if err != nil {
			b.sendMessage(owner.ID, "⛔️ Error picking the winner: "+err.Error())
			return
		}

		var cached *big.Int
		if info := b.cachedInfo(); info != nil {
			cached = info.Balance
		}
		prize := prizeFromReceipt(receipt, cached)

		name := utils.ShortenAddress(winner)
		if user := b.getUserByAddress(winner); user != nil {
			b.mu.RLock()
			tgUser := b.tgUsers[user.ID]
			b.mu.RUnlock()
			if tgUser != nil {
				name = utils.FormatDbTgUser(tgUser)
			}
			b.sendMessage(user.ID, "🤑 You won the lottery!")
		}

		text := fmt.Sprintf("🎉 %s has won %s eGLD - [tx](%s%s)",
			name, utils.FromDenominated(prize).String(), b.cfg.Network.ExplorerTransaction, receipt.Hash)
		b.sendToGroup(strings.ReplaceAll(text, "_", "\\_"))
		log.Info("winner announced", "winner", winner, "hash", receipt.Hash)
	}()
}

func txFee(gasLimit, gasPrice uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), new(big.Int).SetUint64(gasPrice))
}

// prizeFromReceipt reads the amount paid out from the pickWinner event,
// falling back to the last known lottery balance
func prizeFromReceipt(receipt *data.TxReceipt, fallback *big.Int) *big.Int {
	if receipt != nil {
		for _, entry := range receipt.Logs {
			if entry != nil && entry.Identifier == contract.EventPickWinner && len(entry.Topics) > 1 {
				return new(big.Int).SetBytes(entry.Topics[1])
			}
		}
	}
	if fallback == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Set(fallback)
}

func (b *Bot) editTxStatus(chatID int64, messageID int, format string, receipt *data.TxReceipt, txErr error) {
	status := data.StatusFail
	hash := ""
	if receipt != nil {
		status = receipt.Status
		hash = receipt.Hash
	}

	text := format + statusText(status)
	if hash != "" {
		text = fmt.Sprintf("%s[%s](%s%s)", format, statusText(status), b.cfg.Network.ExplorerTransaction, hash)
	}
	if txErr != nil {
		text += "\n" + txErr.Error()
	}

	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	b.tgBot.Send(msg)
}

func (b *Bot) userKey(id int64) []byte {
	return utils.GetPrivateKeyFromSeed(b.cfg.Seedphrase, id)
}

func (b *Bot) getOrCreateUser(tgUser *tgbotapi.User) *data.User {
	id := int64(tgUser.ID)

	b.mu.RLock()
	user, ok := b.users[id]
	b.mu.RUnlock()

	if !ok {
		wallet, err := b.client.ImportKey(context.Background(), b.userKey(id))
		if err != nil {
			log.Error("can not unlock user wallet", "user", id, "error", err)
			wallet, _ = utils.GetAddressFromPrivateKey(b.userKey(id))
		}
		user = &data.User{
			ID:     id,
			Wallet: wallet,
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.users[id]; ok {
		user = existing
	} else {
		b.users[id] = user
	}

	tg, ok := b.tgUsers[id]
	if !ok || tg.UserName != tgUser.UserName || tg.FirstName != tgUser.FirstName || tg.LastName != tgUser.LastName {
		b.tgUsers[id] = &data.Telegram{
			ID:        id,
			UserName:  tgUser.UserName,
			FirstName: tgUser.FirstName,
			LastName:  tgUser.LastName,
		}
	}

	return user
}

func (b *Bot) getUserByAddress(address string) *data.User {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, user := range b.users {
		if user.Wallet == address {
			return user
		}
	}

	return nil
}
