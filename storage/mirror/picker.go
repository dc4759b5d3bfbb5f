package mirror

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Picker 向用户申请一个镜像目录
type Picker interface {
	PickFolder(ctx context.Context) (string, error)
}

// StaticPicker 预先配置好的目录
type StaticPicker struct {
	Dir string
}

func (p StaticPicker) PickFolder(ctx context.Context) (string, error) {
	if p.Dir == "" {
		return "", ErrUserCancelled
	}
	return p.Dir, nil
}

// TerminalPicker 在终端提示输入目录，空行或 EOF 视为取消。
// 输入由同一个读协程按行转发，取消的提示不会吞掉下一次提示的回答。
type TerminalPicker struct {
	In  io.Reader
	Out io.Writer

	once  sync.Once
	lines chan inputLine
}

type inputLine struct {
	text string
	err  error
}

// NewTerminalPicker 使用标准输入输出
func NewTerminalPicker() *TerminalPicker {
	return &TerminalPicker{In: os.Stdin, Out: os.Stderr}
}

// readLines 读到 EOF 或错误后关闭通道
func (p *TerminalPicker) readLines() {
	defer close(p.lines)
	reader := bufio.NewReader(p.In)
	for {
		text, err := reader.ReadString('\n')
		if text != "" || err != nil {
			p.lines <- inputLine{text: text, err: err}
		}
		if err != nil {
			return
		}
	}
}

func (p *TerminalPicker) PickFolder(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.lines = make(chan inputLine)
		go p.readLines()
	})

	_, _ = fmt.Fprint(p.Out, "Choose a folder to mirror saved images into (empty to skip): ")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrUserCancelled
		}
		dir := strings.TrimSpace(line.text)
		if dir == "" {
			if line.err != nil && line.err != io.EOF {
				return "", fmt.Errorf("failed to read folder: %w", line.err)
			}
			return "", ErrUserCancelled
		}
		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("cannot use folder %q: %w", dir, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("cannot use folder %q: not a directory", dir)
		}
		return dir, nil
	}
}
