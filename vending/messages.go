package vending

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencyLabel = "won"

// printer formats amounts with grouping separators ("10,000 won").
var printer = message.NewPrinter(language.English)

func money(amount int64) string {
	return printer.Sprintf("%d %s", amount, currencyLabel)
}

func insertedMessages(value int64, b Balances) []string {
	return []string{
		printer.Sprintf("%s inserted.", money(value)),
		printer.Sprintf("Total inserted: %s.", money(b.Inserted)),
		printer.Sprintf("Your wallet holds %s.", money(b.CustomerRemaining)),
	}
}

func walletShortMessages(value int64, b Balances) []string {
	return []string{
		printer.Sprintf("Not enough money in your wallet to insert %s (you have %s).",
			money(value), money(b.CustomerRemaining)),
	}
}

func rejectedPurchaseMessages(item Item) []string {
	switch item.Status {
	case InsufficientFunds:
		return []string{printer.Sprintf("Not enough money inserted to buy %s.", item.Name)}
	case NoChangeAvailable:
		return []string{printer.Sprintf("The machine does not have enough change to sell %s.", item.Name)}
	case OutOfStock:
		return []string{printer.Sprintf("%s is out of stock.", item.Name)}
	default:
		return nil
	}
}

func dispensedMessages(item Item, refunded bool, change int64) []string {
	msgs := []string{printer.Sprintf("%s has been dispensed.", item.Name)}
	if !refunded {
		return msgs
	}
	if change > 0 {
		return append(msgs, printer.Sprintf("Your change is %s.", money(change)))
	}
	return append(msgs, "There is no change to return.")
}

func refundMessages(amount int64) []string {
	return []string{printer.Sprintf("%s has been returned.", money(amount))}
}
