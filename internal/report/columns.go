package report

import "strconv"

// ColumnLetter converts a 0-based column index to spreadsheet letters:
// 0 is A, 25 is Z, 26 is AA. Negative indexes have no letter form.
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var buf [16]byte
	i := len(buf)
	for n := index; n >= 0; n = n/26 - 1 {
		i--
		buf[i] = byte('A' + n%26)
	}
	return string(buf[i:])
}

// CellRef builds an A1 reference from a 0-based column and a 1-based sheet row.
func CellRef(col, row int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// ColumnRange builds an A1 range covering one column between two 1-based rows.
func ColumnRange(col, firstRow, lastRow int) string {
	return CellRef(col, firstRow) + ":" + CellRef(col, lastRow)
}
