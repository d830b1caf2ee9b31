package logs

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Level  string
	Format string // text | json
	File   string // пусто: только stdout
}

// Logger: общий логгер приложения; до Init пишет в stderr с настройками по умолчанию.
var Logger = logrus.NewEntry(logrus.StandardLogger())

func Init(o Options) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(o.Level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	switch strings.ToLower(o.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stdout
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Warnf("log file %s: %v (stdout only)", o.File, err)
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	l.SetOutput(out)

	Logger = logrus.NewEntry(l).WithField("app", "inventario")
}
