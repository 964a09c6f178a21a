package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/objpack-go/internal/serializer"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

const stdStream = "-"

func isStd(path string) bool {
	return path == "" || path == stdStream
}

// readInput 读取 path 指向的文件，path 为空或 "-" 时读取标准输入。
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if isStd(path) {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, merr.WrapErrIoFailed("stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merr.WrapErrIoFailed(path, err)
	}
	return data, nil
}

// writeOutput 将 data 写入 path，path 为空或 "-" 时写入标准输出。
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if isStd(path) {
		_, err := cmd.OutOrStdout().Write(data)
		return merr.WrapErrIoFailed("stdout", err)
	}
	return merr.WrapErrIoFailed(path, os.WriteFile(path, data, 0o644))
}

// createOutput 返回 path 对应的 Writer 与关闭函数。
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if isStd(path) {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, merr.WrapErrIoFailed(path, err)
	}
	return f, func() error { return merr.WrapErrIoFailed(path, f.Close()) }, nil
}

// parseDocument 按 format 将文档解析为对象图，format 仅支持 json 与 proto。
func parseDocument(data []byte, format string) (objpack.Value, error) {
	ser, err := documentSerializer(format)
	if err != nil {
		return nil, err
	}
	var v objpack.Value
	if err := ser.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func documentSerializer(format string) (serializer.Serializer, error) {
	if format == serializer.FormatObjpack {
		return nil, merr.WrapErrParameterInvalidMsg("format %q is not a document format", format)
	}
	ser, ok := serializer.ByName(format)
	if !ok {
		return nil, merr.WrapErrParameterInvalidMsg("unknown format %q", format)
	}
	return ser, nil
}
