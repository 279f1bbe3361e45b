package domain

type StoreSettings struct {
	Currency         string `json:"currency"`
	CODEnabled       bool   `json:"codEnabled"`
	ReturnWindowDays int    `json:"returnWindowDays"`
}
