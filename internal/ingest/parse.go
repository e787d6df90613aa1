package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Field counts of the partner files
const (
	UniverseFields     = 12
	AccountFields      = 8
	CustomerFundFields = 5
)

// ParseResult holds the accepted rows of one partner file
type ParseResult[T any] struct {
	Rows       []T
	Dropped    int // wrong field count or unparsable value
	Duplicates int // identical rows collapsed
}

// readRecords splits semicolon-delimited content. Records with the wrong field
// count or malformed quoting are counted as dropped. Accepted records are trimmed
// and deduplicated on the fields from keyFrom onwards.
func readRecords(content string, fields, keyFrom int) (records [][]string, dropped, duplicates int, err error) {
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	seen := make(map[string]bool)
	for {
		rec, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			var parseErr *csv.ParseError
			if errors.As(readErr, &parseErr) {
				dropped++
				continue
			}
			return nil, 0, 0, fmt.Errorf("read partner file: %w", readErr)
		}

		if len(rec) != fields {
			dropped++
			continue
		}

		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}

		key := strings.Join(rec[keyFrom:], "\x1f")
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}
	return records, dropped, duplicates, nil
}

// ParseUniverse parses fnd_list. The first of the 12 fields is a row sequence;
// it is discarded and plays no part in deduplication.
func ParseUniverse(content string, tradeDate, regDate time.Time) (*ParseResult[contracts.UniverseRow], error) {
	records, dropped, dups, err := readRecords(content, UniverseFields, 1)
	if err != nil {
		return nil, err
	}

	result := &ParseResult[contracts.UniverseRow]{Dropped: dropped, Duplicates: dups}
	for _, rec := range records {
		f := rec[1:]
		total, err := parseInt(f[10])
		if err != nil {
			result.Dropped++
			continue
		}
		result.Rows = append(result.Rows, contracts.UniverseRow{
			FundCode:     f[0],
			FossFundCode: f[1],
			FundName:     f[2],
			FundCodeS:    f[3],
			TradeYN:      f[4],
			ClassGB:      f[5],
			RiskGrade:    f[6],
			InvestGB:     f[7],
			CompanyCode:  f[8],
			CompanyName:  f[9],
			TotalCount:   total,
			TradeDate:    tradeDate,
			RegDate:      regDate,
		})
	}
	return result, nil
}

// ParseAccounts parses ap_acc_info
func ParseAccounts(content string, tradeDate, regDate time.Time) (*ParseResult[contracts.AccountRow], error) {
	records, dropped, dups, err := readRecords(content, AccountFields, 0)
	if err != nil {
		return nil, err
	}

	result := &ParseResult[contracts.AccountRow]{Dropped: dropped, Duplicates: dups}
	for _, f := range records {
		nums, err := parseInts(f[3], f[4], f[5], f[7])
		if err != nil {
			result.Dropped++
			continue
		}
		result.Rows = append(result.Rows, contracts.AccountRow{
			CustomerID:          f[0],
			InvestGB:            f[1],
			RiskGrade:           f[2],
			InvestPrincipal:     nums[0],
			TotalAppraisalPrice: nums[1],
			RevenuePrice:        nums[2],
			OrderStatus:         f[6],
			DepositPrice:        nums[3],
			TradeDate:           tradeDate,
			RegDate:             regDate,
		})
	}
	return result, nil
}

// ParseCustomerFunds parses ap_fnd_info
func ParseCustomerFunds(content string, tradeDate, regDate time.Time) (*ParseResult[contracts.CustomerFundRow], error) {
	records, dropped, dups, err := readRecords(content, CustomerFundFields, 0)
	if err != nil {
		return nil, err
	}

	result := &ParseResult[contracts.CustomerFundRow]{Dropped: dropped, Duplicates: dups}
	for _, f := range records {
		nums, err := parseInts(f[2], f[3], f[4])
		if err != nil {
			result.Dropped++
			continue
		}
		result.Rows = append(result.Rows, contracts.CustomerFundRow{
			CustomerID:      f[0],
			FundCode:        f[1],
			InvestPrincipal: nums[0],
			AppraisalPrice:  nums[1],
			RevenuePrice:    nums[2],
			TradeDate:       tradeDate,
			RegDate:         regDate,
		})
	}
	return result, nil
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func parseInts(values ...string) ([]int64, error) {
	out := make([]int64, len(values))
	for i, v := range values {
		n, err := parseInt(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
