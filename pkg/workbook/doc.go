// Package workbook imports and exports the spreadsheet form of Define-XML
// metadata.
//
// # Sheets
//
// A metadata workbook has one sheet per record kind. The first row of each
// sheet is the header; headers and sheet names are matched ignoring case and
// whitespace, and unknown columns are ignored. [Schemas] lists every sheet
// with its columns, which columns are required and which sheet it depends
// on:
//
//	Study                 required
//	Standards
//	Documents
//	Comments
//	Methods
//	Codelists             one row per term
//	Dictionaries
//	Datasets              required
//	Variables             required, depends on Datasets
//	ValueLevel            depends on Variables, one row per condition
//	Analysis Displays
//	Analysis Results      depends on Analysis Displays
//	Analysis Datasets     depends on Analysis Results
//
// # Importing
//
// [Import] binds the sheets in that order. Structural problems are errors
// for the sheet: a required sheet that is missing, or a required column that
// is missing from the header. Such a sheet is skipped along with every sheet
// that depends on it, while independent sheets still import. Row problems
// are warnings located by sheet, row (the header is row 1) and column; the
// row, or the offending cell, is skipped.
//
// The workbook omits most keys. Dataset, variable, value list, value, where
// clause, display and result OIDs are derived from names (see the key
// functions in package define) unless an explicit OID column is filled in.
//
// Where a record can name a method or comment either by key or by text, the
// key column wins. Giving both is a warning and the text is ignored. Text
// alone creates a method or comment under a derived key, and the same text
// used again refers to the record already created.
//
// ValueLevel and Analysis Datasets rows form repeat groups. A ValueLevel row
// with Dataset and Variable filled in starts a value; following rows with
// both blank add conditions to its where clause. The condition columns of the
// first row are bound by the same code as the following rows, so a value
// without conditions is a group whose only row has blank condition columns.
//
// # Cells
//
// [ReadWorkbook] reduces an xlsx file to text. Strings are taken as they are,
// booleans become TRUE or FALSE, formulas become "=" followed by the formula
// text, whole numbers are written without a decimal point and other numbers
// are rounded to ten decimal places. Error cells keep their error text.
//
// # Exporting
//
// [Rows] maps a model to sheets with the schema's header order. Importing
// the result yields the same model, so Rows, Import and Rows again give the
// same sheets. [WriteWorkbook] writes sheets to xlsx.
//
// Document references use one cell syntax throughout: "LF.acrf[12 14]" for
// a page list, "LF.acrf[3-5]" for a range and "; " between references.
package workbook
