package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xraph/groupbuy/ledger"
)

// Usage hints returned in Malformed commands.
const (
	UsageCreate = "請依格式輸入:\n\"create-D1-品名-單價-描述\""
	UsageToggle = "請依格式輸入:\n\"toggle-D1\""
	UsageOpen   = "請依格式輸入:\n\"open-D1\""
	UsageClose  = "請依格式輸入:\n\"close-D1\""
	UsagePaid   = "請依格式輸入:\n\"paid-D1-名稱\""
	UsageUnpaid = "請依格式輸入:\n\"unpaid-D1-名稱\""
	UsageCheck  = "請依格式輸入:\n\"check-名稱\""
	UsageOrder  = "請依格式輸入:\n\"D1+1\" 或 \"D1-1#備註\""
)

var (
	keywordRe = regexp.MustCompile(`(?is)^(create|toggle|open|close|paid|unpaid|check)(?:\s*-(.*))?$`)
	deltaRe   = regexp.MustCompile(`(?s)^([^\s+\-#]+)\s*([+-])\s*(\d+)\s*(?:#(.*))?$`)
	titleRe   = regexp.MustCompile(`^[^\s+\-#]+$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

var (
	helpWords = map[string]bool{"help": true, "說明": true, "指令": true}
	mineWords = map[string]bool{"我的訂單": true, "my orders": true}
	allWords  = map[string]bool{"全部訂單": true, "all orders": true}
)

type matcher func(text string, s Sender) (Command, bool)

// matchers run in order; the first that accepts the text wins.
var matchers = []matcher{
	matchKeyword,
	matchDelta,
	matchPhrase,
	matchLedgerName,
}

// Parse classifies text sent by s.
//
// Coordinator commands from anyone else, and member listings requested
// outside a direct chat, come back as Unrecognized rather than as a
// permission error.
func Parse(text string, s Sender) Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Unrecognized{Text: text}
	}

	for _, m := range matchers {
		if cmd, ok := m(trimmed, s); ok {
			return cmd
		}
	}
	return Unrecognized{Text: text}
}

func matchKeyword(text string, s Sender) (Command, bool) {
	m := keywordRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	keyword := strings.ToLower(m[1])
	args := strings.TrimSpace(m[2])

	if !s.IsCoordinator {
		return Unrecognized{Text: text}, true
	}

	switch keyword {
	case "create":
		return parseCreate(args), true
	case "toggle":
		title, ok := parseTitle(args)
		if !ok {
			return Malformed{Keyword: keyword, Usage: UsageToggle}, true
		}
		return ToggleLedger{Title: title}, true
	case "open", "close":
		usage, status := UsageOpen, ledger.StatusOpen
		if keyword == "close" {
			usage, status = UsageClose, ledger.StatusClosed
		}
		title, ok := parseTitle(args)
		if !ok {
			return Malformed{Keyword: keyword, Usage: usage}, true
		}
		return SetStatus{Title: title, Status: status}, true
	case "paid", "unpaid":
		usage := UsagePaid
		if keyword == "unpaid" {
			usage = UsageUnpaid
		}
		parts := strings.SplitN(args, "-", 2)
		if len(parts) != 2 {
			return Malformed{Keyword: keyword, Usage: usage}, true
		}
		title, ok := parseTitle(parts[0])
		name := strings.TrimSpace(parts[1])
		if !ok || name == "" {
			return Malformed{Keyword: keyword, Usage: usage}, true
		}
		return MarkPaid{Title: title, DisplayName: name, Paid: keyword == "paid"}, true
	case "check":
		if !s.Source.Direct() {
			return Unrecognized{Text: text}, true
		}
		if args == "" {
			return Malformed{Keyword: keyword, Usage: UsageCheck}, true
		}
		return CheckMember{DisplayName: args}, true
	}
	return nil, false
}

// parseCreate reads "<ledger>-<product>-<unitPrice>-<description>". The
// description keeps any further hyphens.
func parseCreate(args string) Command {
	malformed := Malformed{Keyword: "create", Usage: UsageCreate}

	parts := strings.SplitN(args, "-", 4)
	if len(parts) != 4 {
		return malformed
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return malformed
		}
	}

	title, ok := parseTitle(parts[0])
	if !ok {
		return malformed
	}
	price, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || price < 0 || !isDigits(parts[2]) {
		return malformed
	}

	return CreateLedger{
		Title:       title,
		Product:     parts[1],
		UnitPrice:   price,
		Description: parts[3],
	}
}

func matchDelta(text string, _ Sender) (Command, bool) {
	m := deltaRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	amount, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Malformed{Keyword: "order", Usage: UsageOrder}, true
	}
	if m[2] == "-" {
		amount = -amount
	}

	d := OrderDelta{
		Title:  ledger.NormalizeTitle(m[1]),
		Amount: amount,
	}
	if strings.Contains(text, "#") {
		d.Comment = strings.TrimSpace(m[4])
		d.HasComment = true
	}
	return d, true
}

func matchPhrase(text string, s Sender) (Command, bool) {
	phrase := strings.ToLower(spaceRe.ReplaceAllString(text, " "))

	switch {
	case helpWords[phrase]:
		return Help{}, true
	case mineWords[phrase]:
		return QueryMine{}, true
	case allWords[phrase]:
		if !s.IsCoordinator || !s.Source.Direct() {
			return Unrecognized{Text: text}, true
		}
		return QueryAll{}, true
	}
	return nil, false
}

func matchLedgerName(text string, _ Sender) (Command, bool) {
	title, ok := parseTitle(text)
	if !ok {
		return nil, false
	}
	return QueryLedger{Title: title}, true
}

// parseTitle validates and normalizes a ledger name token.
func parseTitle(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !titleRe.MatchString(s) {
		return "", false
	}
	return ledger.NormalizeTitle(s), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
