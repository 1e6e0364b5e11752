package output

import "io"

// Writer форматирует результат команды. Реализации: JSONWriter, TextWriter.
type Writer interface {
	Write(w io.Writer, result *Result) error
}

// TextRenderer реализуется payload'ами, которые умеют выводить себя
// в человекочитаемом виде.
type TextRenderer interface {
	WriteText(w io.Writer) error
}
