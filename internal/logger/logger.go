// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger writing to a rotated file under the
// user cache directory. Level comes from <APPNAME>_LOG_LEVEL (debug, info,
// warn, error), defaulting to info.
func New(appName string) (*zap.SugaredLogger, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	logFile := filepath.Join(cacheDir, strings.ToLower(appName), appName+".log")

	writer := &lumberjack.Logger{
		Filename:   logFile,
		LocalTime:  true,
		MaxBackups: 10,
		MaxSize:    10,
	}

	level := zapcore.InfoLevel
	if v := os.Getenv(strings.ToUpper(appName) + "_LOG_LEVEL"); v != "" {
		if parsed, err := zapcore.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(writer),
		level,
	)

	return zap.New(core, zap.AddCaller()).Sugar(), nil
}
