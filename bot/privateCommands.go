package bot

import (
	"github.com/DrDelphi/EgldLotteryBot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

func (b *Bot) privateCommandReceived(message *tgbotapi.Message) {
	cmd := message.Command()
	args := message.CommandArguments()
	name := utils.FormatTgUser(message.From)

	user := b.getOrCreateUser(message.From)
	log.Info("private command received", "command", cmd, "args", args, "user", name)

	switch cmd {
	case "start", "help":
		msg := tgbotapi.NewMessage(user.ID, helpText(b.cfg.Bot.Group))
		msg.ParseMode = tgbotapi.ModeMarkdown
		b.tgBot.Send(msg)
		b.mainMenu(user)
	case "enter":
		value, err := b.entryValue(args)
		if err != nil {
			b.sendMessage(user.ID, "⛔️ Invalid amount: "+err.Error())
			return
		}
		b.enterLottery(user, value)
	case "pickwinner":
		if int64(message.From.ID) != b.cfg.Bot.Owner {
			b.sendMessage(user.ID, "⛔️ Only the owner can pick the winner")
			return
		}
		b.pickWinner(user)
	}
}
