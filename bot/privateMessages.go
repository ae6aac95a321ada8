package bot

import (
	"context"
	"fmt"

	"github.com/DrDelphi/EgldLotteryBot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

func (b *Bot) privateMessageReceived(message *tgbotapi.Message) {
	user := b.getOrCreateUser(message.From)
	name := utils.FormatTgUser(message.From)
	log.Info("private message received", "message", message.Text, "user", name)

	switch message.Text {
	case menuAbout:
		msg := tgbotapi.NewMessage(user.ID, aboutMessage)
		msg.ParseMode = tgbotapi.ModeMarkdown
		b.tgBot.Send(msg)
		return
	case menuMainHelp:
		text := helpText(b.cfg.Bot.Group)
		msg := tgbotapi.NewMessage(user.ID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		_, err := b.tgBot.Send(msg)
		if err != nil {
			log.Error("unable to send message", "message", text, "error", err)
		}
		return
	case menuLotteryInfo:
		b.sendLotteryInfo(user)
		return
	case menuPlayers:
		b.sendPlayers(user)
		return
	case menuEnter:
		value, err := b.entryValue("")
		if err != nil {
			b.reportError("can not read minimum entry: " + err.Error())
			return
		}
		b.enterLottery(user, value)
		return
	case menuBalance:
		balance, err := b.client.GetBalance(context.Background(), user.Wallet)
		if err != nil {
			b.reportError("can not get wallet balance: " + err.Error())
			return
		}
		text := fmt.Sprintf("`Wallet:` [%s](%s%s)\n`Balance:` %s eGLD",
			utils.ShortenAddress(user.Wallet), b.cfg.Network.ExplorerAccount, user.Wallet, utils.NicePrice(utils.ToFloat(balance), -1))
		keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 PEM file", callbackPem),
		))
		msg := tgbotapi.NewMessage(user.ID, text)
		msg.ReplyMarkup = keyboard
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		b.tgBot.Send(msg)
		return
	}
}
