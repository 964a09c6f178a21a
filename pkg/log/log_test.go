package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type LogSuite struct {
	suite.Suite
}

func (s *LogSuite) TestInitTestLogger() {
	for _, format := range []string{"console", "json"} {
		lg, props, err := InitTestLogger(s.T(), &Config{Level: "debug", Format: format})
		s.Require().NoError(err)
		s.Equal(zapcore.DebugLevel, props.Level.Level())
		lg.With(zap.String("format", format)).Debug("test logger", FieldTag(0xab), FieldOffset(3))
	}
}

func (s *LogSuite) TestInvalidLevel() {
	_, _, err := InitTestLogger(s.T(), &Config{Level: "loud"})
	s.Error(err)
}

func (s *LogSuite) TestCtxFields() {
	ctx := WithModule(context.Background(), "objpack")
	l := Ctx(ctx)
	s.NotNil(l)
	s.Same(l, Ctx(ctx))
	s.NotNil(Ctx(context.Background()))
}

func (s *LogSuite) TestRatedLogger() {
	l := With(FieldComponent("test")).WithRateGroup("log_suite", 1, 1)
	s.True(l.RatedDebug(1, "first"))
	s.False(l.RatedDebug(1, "second"))
}

func (s *LogSuite) TestBinder() {
	var b Binder
	s.NotNil(b.Logger())
	l := With(FieldModule("binder"))
	b.SetLogger(l)
	s.Same(l, b.Logger())
	s.Same(l, b.CtxLogger(context.Background()))
}

func (s *LogSuite) TestBinderCtxFields() {
	core, logs := observer.New(zapcore.DebugLevel)
	var b Binder
	b.SetLogger(&MLogger{Logger: zap.New(core)})

	ctx := WithModule(WithTraceID(context.Background(), "trace-1"), "encoder")
	b.CtxLogger(ctx).Info("bound", FieldSize(4))

	s.Require().Equal(1, logs.Len())
	fields := logs.All()[0].ContextMap()
	s.Equal("trace-1", fields["traceID"])
	s.Equal("encoder", fields[FieldNameModule])
	s.EqualValues(4, fields["size"])
}

func (s *LogSuite) TestHexByte() {
	s.Equal("0xff", hexByte(0xff).String())
	s.Equal("0x0a", hexByte(0x0a).String())
}

func TestLog(t *testing.T) {
	suite.Run(t, new(LogSuite))
}
