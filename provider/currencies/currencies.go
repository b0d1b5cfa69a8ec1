package currencies

// Currency describes a currency the service advertises
type Currency struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Country string `json:"country"`
}

const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY"
)

// supported is the advertised catalogue, in display order
var supported = []Currency{
	{Code: USD, Name: "US Dollar", Symbol: "$", Country: "United States"},
	{Code: EUR, Name: "Euro", Symbol: "€", Country: "European Union"},
	{Code: GBP, Name: "British Pound", Symbol: "£", Country: "United Kingdom"},
	{Code: JPY, Name: "Japanese Yen", Symbol: "¥", Country: "Japan"},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF", Country: "Switzerland"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", Country: "Canada"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Country: "Australia"},
	{Code: "NZD", Name: "New Zealand Dollar", Symbol: "NZ$", Country: "New Zealand"},
	{Code: "SEK", Name: "Swedish Krona", Symbol: "kr", Country: "Sweden"},
	{Code: "NOK", Name: "Norwegian Krone", Symbol: "kr", Country: "Norway"},
	{Code: "DKK", Name: "Danish Krone", Symbol: "kr", Country: "Denmark"},
	{Code: "PLN", Name: "Polish Złoty", Symbol: "zł", Country: "Poland"},
	{Code: "CZK", Name: "Czech Koruna", Symbol: "Kč", Country: "Czech Republic"},
	{Code: "HUF", Name: "Hungarian Forint", Symbol: "Ft", Country: "Hungary"},
}

// Supported returns a copy of the advertised currency catalogue.
// The catalogue is informational: requests are not restricted to it
func Supported() []Currency {
	out := make([]Currency, len(supported))
	copy(out, supported)

	return out
}
