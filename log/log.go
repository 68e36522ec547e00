package log

import (
	"io"
	"log"
	"os"
)

var (
	Trace   *log.Logger
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
)

func init() {
	Init(io.Discard, os.Stdout, os.Stdout, os.Stderr)
}

func Init(
	traceHandle io.Writer,
	infoHandle io.Writer,
	warningHandle io.Writer,
	errorHandle io.Writer) {

	Trace = log.New(traceHandle,
		"TRACE: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Info = log.New(infoHandle,
		"INFO: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Warning = log.New(warningHandle,
		"WARNING: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Error = log.New(errorHandle,
		"ERROR: ",
		log.Ldate|log.Ltime|log.Lshortfile)
}

// InitLog wires the loggers from the environment.
// INKMATH_TRACE=1 enables trace output, INKMATH_QUIET=1 silences info.
func InitLog() {
	var trace io.Writer = io.Discard
	if os.Getenv("INKMATH_TRACE") == "1" {
		trace = os.Stdout
	}

	var info io.Writer = os.Stdout
	if os.Getenv("INKMATH_QUIET") == "1" {
		info = io.Discard
	}

	Init(trace, info, os.Stdout, os.Stderr)
}
