package bot

import (
	"github.com/DrDelphi/EgldLotteryBot/data"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

func (b *Bot) mainMenu(user *data.User) {
	menu := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLotteryInfo),
			tgbotapi.NewKeyboardButton(menuPlayers),
			tgbotapi.NewKeyboardButton(menuBalance),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuEnter),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuMainHelp),
			tgbotapi.NewKeyboardButton(menuAbout),
		),
	)

	msg := tgbotapi.NewMessage(user.ID, "`🏘 Main menu`")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = menu
	b.tgBot.Send(msg)
}
