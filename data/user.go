package data

type User struct {
	ID     int64
	Wallet string
}

type Telegram struct {
	ID        int64
	UserName  string
	FirstName string
	LastName  string
}
