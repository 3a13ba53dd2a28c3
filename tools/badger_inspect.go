package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	// Empty prefix dumps every entity, counters and the email index included
	prefix := flag.String("prefix", "", "Prefix to scan, e.g. user:id: or social_event:")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Entity", "Size", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append([]string{rawKey, entityOf(rawKey), strconv.Itoa(len(v)), render(rawKey, v)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func entityOf(key string) string {
	switch {
	case strings.HasPrefix(key, "seq:"):
		return "COUNTER"
	case strings.HasPrefix(key, "user:email:"):
		return "EMAIL INDEX"
	}
	return strings.ToUpper(strings.SplitN(key, ":", 2)[0])
}

// render decodes 8-byte ids and compacts JSON documents.
func render(key string, v []byte) string {
	if strings.HasPrefix(key, "seq:") || strings.HasPrefix(key, "user:email:") {
		if len(v) == 8 {
			return strconv.FormatUint(binary.BigEndian.Uint64(v), 10)
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, v); err != nil {
		return fmt.Sprintf("undecodable: %v", err)
	}
	out := compact.String()
	if len(out) > 120 {
		out = out[:117] + "..."
	}
	return out
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		// A crashed writer leaves a vlog to truncate, which needs a write open first
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}
			_ = db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
