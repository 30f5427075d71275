// Package op implements the table accessors and row objects. A Table
// turns method calls into statements for one table; the rows it returns
// remember their origin and can write changes back or delete themselves.
package op
