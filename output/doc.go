// Package output provides the sinks that receive final answers.
//
// A FileSink writes the answer verbatim to a file, replacing what was there
// before. A MemorySink keeps every write in process and is meant for tests
// and embedding applications that want the text without touching disk.
package output
