package bot

import "errors"

const (
	menuLotteryInfo = "ℹ️ Lottery Info"
	menuEnter       = "🎟 Enter"
	menuPlayers     = "👥 Players"
	menuBalance     = "💰 Balance"
	menuMainHelp    = "📖 Help"
	menuAbout       = "©️ About"

	callbackPem = "PEM"

	infoRefreshSeconds = 6
	managerKeyIndex    = 0

	aboutMessage = "*Made with ❤️ by* [@DrDelphi](https://t.me/DrDelphi)"
)

var errUserNotFound = errors.New("user not found")

func helpText(group string) string {
	return "`DISCLAIMER !`\n" +
		"\n" +
		"🔴 All prizes are considered friend gifts.\n" +
		"🟡 This bot is in no way sponsored, endorsed, administered by, or associated with MultiversX. By participating you agree to a complete release of MultiversX from any claims.\n" +
		"🟢 You agree to choose to join or stay in this group, you play on your own free will.\n" +
		"🟣 Must be 18 years old or older to play!\n" +
		"\n" +
		"`Instructions`\n" +
		"\n" +
		"This is a Lottery Telegram Bot that interacts with a smart contract on the MultiversX Blockchain.\n\n" +
		"The bot will generate a wallet for you from which you enter the lottery and where you receive the prize.\n\n" +
		"Every entry adds you to the players list once. When the manager picks the winner, one player receives the whole pot and a new round starts.\n\n" +
		"⚠️ The winner is chosen with block data that block producers can influence. Play for fun only.\n\n" +
		"You can watch the game's progress on @" + group + "\n\n" +
		"🍀 Good luck!"
}
