package journal

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "journal")
