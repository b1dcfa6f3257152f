// Package diag is the leveled logger used by the CLI, which also logs
// the errors the durable sinks report. The parser core never logs; it only reports through its event
// sink, so everything here stays out of the hot path.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Level int

const (
	T Level = iota
	I
	W
	E
)

type Log struct {
	Output io.Writer
	File   string

	NoStdout bool

	PrefixS map[Level]string
	BaseS   []any

	logger *log.Logger

	blockLevel atomic.Int32
}

// New 初始化
func New(c *Log) (o *Log) {
	o = c
	if o.PrefixS == nil {
		o.PrefixS = map[Level]string{T: "T:", I: "I:", W: "W:", E: "E:"}
	}
	o.reloadLogger()
	return
}

func (o *Log) reloadLogger() {
	var showObj = []io.Writer{}
	if o.Output != nil {
		showObj = append(showObj, o.Output)
	}
	if !o.NoStdout {
		showObj = append(showObj, os.Stdout)
	}
	if o.File != `` {
		if file, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
			showObj = append(showObj, file)
		} else {
			log.Println(err)
		}
	}
	o.logger = log.New(io.MultiWriter(showObj...), "", log.Ldate|log.Ltime)
}

// Block 不显示低于level的日志
func (o *Log) Block(level Level) *Log {
	o.blockLevel.Store(int32(level))
	return o
}

// Base 在每条日志的前缀后插入固定字段
func (o *Log) Base(base ...any) *Log {
	o.BaseS = base
	return o
}

func (o *Log) L(level Level, msgs ...any) *Log {
	if o == nil || o.logger == nil {
		return o
	}
	if int32(level) < o.blockLevel.Load() {
		return o
	}
	var out = []any{o.PrefixS[level]}
	out = append(out, o.BaseS...)
	out = append(out, msgs...)
	o.logger.Println(out...)
	return o
}

func (o *Log) Lf(level Level, format string, args ...any) *Log {
	return o.L(level, fmt.Sprintf(format, args...))
}
