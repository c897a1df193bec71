package bot

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsedEntry represents an amount and description parsed from user input.
type ParsedEntry struct {
	Amount       decimal.Decimal
	Description  string
	CategoryName string
}

// ParsedGoal represents a goal parsed from /nuevameta.
type ParsedGoal struct {
	Cost   decimal.Decimal
	Months int
	Name   string
}

// ParsedContribution represents a contribution parsed from /aportar.
type ParsedContribution struct {
	Index  int
	Amount decimal.Decimal
	Note   string
}

// amountRegex matches amounts like "5", "5.50", "5,50", "€5" or "5€".
var amountRegex = regexp.MustCompile(`^€?\s*(\d+(?:[.,]\d{1,2})?)\s*€?`)

// parseAmount reads a leading amount from input and returns it with the rest.
func parseAmount(input string) (decimal.Decimal, string, bool) {
	loc := amountRegex.FindStringSubmatchIndex(input)
	if loc == nil {
		return decimal.Zero, "", false
	}

	number := strings.ReplaceAll(input[loc[2]:loc[3]], ",", ".")
	amount, err := decimal.NewFromString(number)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, "", false
	}

	rest := input[loc[1]:]
	if rest != "" && !strings.HasPrefix(rest, " ") && loc[1] == loc[3] {
		// "12abc" is not an amount.
		return decimal.Zero, "", false
	}
	return amount, strings.TrimSpace(rest), true
}

// ParseEntryInput parses free-text input like "12,50 cena".
// Returns nil if the input cannot be parsed as an entry.
func ParseEntryInput(input string) *ParsedEntry {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	amount, rest, ok := parseAmount(input)
	if !ok {
		return nil
	}

	return &ParsedEntry{
		Amount:      amount,
		Description: rest,
	}
}

// ParseEntryWithCategories parses an entry whose description may end with
// one of categoryNames, e.g. "12 cine ocio".
func ParseEntryWithCategories(input string, categoryNames []string) *ParsedEntry {
	parsed := ParseEntryInput(input)
	if parsed == nil || parsed.Description == "" {
		return parsed
	}

	descLower := strings.ToLower(parsed.Description)
	var matchedCategory string
	var matchedLen int

	for _, catName := range categoryNames {
		catLower := strings.ToLower(catName)
		if descLower != catLower && !strings.HasSuffix(descLower, " "+catLower) {
			continue
		}
		if len(catName) > matchedLen {
			matchedCategory = catName
			matchedLen = len(catName)
		}
	}

	if matchedCategory != "" {
		parsed.Description = strings.TrimSpace(parsed.Description[:len(parsed.Description)-matchedLen])
		parsed.CategoryName = matchedCategory
	}

	return parsed
}

// ParseGoalInput parses "<monto> [meses] <nombre>". Months is zero when omitted.
func ParseGoalInput(input string) *ParsedGoal {
	amount, rest, ok := parseAmount(strings.TrimSpace(input))
	if !ok {
		return nil
	}

	months := 0
	if first, tail, _ := strings.Cut(rest, " "); first != "" {
		if n, err := strconv.Atoi(first); err == nil {
			if n <= 0 {
				return nil
			}
			months = n
			rest = strings.TrimSpace(tail)
		}
	}

	if rest == "" {
		return nil
	}

	return &ParsedGoal{Cost: amount, Months: months, Name: rest}
}

// ParseContributionInput parses "<n> <monto> [nota]", where n is the goal
// position shown by /metas.
func ParseContributionInput(input string) *ParsedContribution {
	first, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	index, err := strconv.Atoi(first)
	if err != nil || index <= 0 {
		return nil
	}

	amount, note, ok := parseAmount(strings.TrimSpace(rest))
	if !ok {
		return nil
	}

	return &ParsedContribution{Index: index, Amount: amount, Note: note}
}
