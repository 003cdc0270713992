package services

import (
	"github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(config.LevelFromEnv())
}
