package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

type ApplicationSuite struct {
	suite.Suite
	dir string
}

func (s *ApplicationSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.T().Setenv(ConfigPathEnv, "")
	s.T().Setenv("OBJPACK_LOG_ENABLE", "")
}

func (s *ApplicationSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ApplicationSuite) TestDefaults() {
	app := New()
	s.Require().NoError(app.Run(""))

	conf := app.Config()
	s.Greater(conf.Batch.Workers, 0)
	s.Equal(".opk", conf.Batch.Suffix)
	s.True(conf.Decode.Recover)
	s.Empty(app.Settings().ConfigFileUsed())
}

func (s *ApplicationSuite) TestLoadFile() {
	path := s.write("objpack.yaml", `
batch:
  workers: 2
  suffix: .bin
decode:
  recover: false
logging:
  batch:
    level: debug
`)
	app := New()
	s.Require().NoError(app.Run(path))

	s.Equal(Config{
		Batch:  BatchConfig{Workers: 2, Suffix: ".bin"},
		Decode: DecodeConfig{Recover: false},
	}, app.Config())
	s.True(app.Logger("batch").Core().Enabled(-1))
	s.NotNil(app.Logger("unknown").Logger)
}

func (s *ApplicationSuite) TestEnvPath() {
	path := s.write("env.yaml", "batch:\n  workers: 5\n")
	s.T().Setenv(ConfigPathEnv, path)

	app := New()
	s.Require().NoError(app.Run(""))
	s.Equal(5, app.Config().Batch.Workers)
}

func (s *ApplicationSuite) TestEnvOverride() {
	s.T().Setenv("OBJPACK_BATCH_SUFFIX", ".env")

	app := New()
	s.Require().NoError(app.Run(""))
	s.Equal(".env", app.Config().Batch.Suffix)
}

func (s *ApplicationSuite) TestErrors() {
	err := New().Run(filepath.Join(s.dir, "missing.yaml"))
	s.ErrorIs(err, merr.ErrIoFailed)

	path := s.write("bad.yaml", "batch:\n  workers: 0\n")
	err = New().Run(path)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func TestApplication(t *testing.T) {
	suite.Run(t, new(ApplicationSuite))
}
