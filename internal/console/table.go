package console

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"library/internal/models"
)

var transactionColumns = []string{"Transaction", "Borrowed", "Due", "Status", "Title", "ISBN", "Author", "Member", "Member ID", "Email"}

// RenderTransactions writes txs as a markdown table ordered by borrow date.
func RenderTransactions(w io.Writer, txs map[string]models.TransactionView) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "_No transactions_")
		return err
	}

	rows := make([]models.TransactionView, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, tx)
	}
	slices.SortFunc(rows, func(a, b models.TransactionView) int {
		if c := strings.Compare(a.BorrowDate, b.BorrowDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	alignment := make([]tw.Align, len(transactionColumns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(transactionColumns)

	for _, tx := range rows {
		if err := table.Append(transactionRow(tx)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n_%d transactions_\n", len(rows))
	return err
}

func transactionRow(tx models.TransactionView) []string {
	row := []string{tx.ID, tx.BorrowDate, tx.DueDate, tx.Status, "-", "-", "-", "-", "-", "-"}
	if tx.Book != nil {
		row[4], row[5], row[6] = tx.Book.Title, tx.Book.ISBN, tx.Book.Author
	}
	if tx.Member != nil {
		row[7], row[8], row[9] = tx.Member.Username, tx.Member.MemberID, tx.Member.Email
	}
	return row
}
