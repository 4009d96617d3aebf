package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "DRIP_DATABASE_TYPE"
const DATABASE_URL = "DRIP_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "DRIP_DATABASE_SQLLITE_FILE_NAME"
const ENGINE_SERVER_WEB_PORT = "DRIP_ENGINE_SERVER_WEB_PORT"
const ENGINE_TICK_SCHEDULE = "DRIP_ENGINE_TICK_SCHEDULE" //cron spec for the due-subscription sweep
const ENGINE_BATCH_SIZE = "DRIP_ENGINE_BATCH_SIZE"       //number of due subscriptions to pull per tick
const ENGINE_WORKER_SIZE = "DRIP_ENGINE_WORKER_SIZE"     //parallel step processors within one tick
const ENGINE_RUNNER_NAME = "DRIP_ENGINE_RUNNER_NAME"     //defaults to the hostname
const ENGINE_STALE_CLAIMS_SCHEDULE = "DRIP_ENGINE_STALE_CLAIMS_SCHEDULE"
const ENGINE_STALE_CLAIMS_AFTER_MINUTES = "DRIP_ENGINE_STALE_CLAIMS_AFTER_MINUTES"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == ENGINE_TICK_SCHEDULE {
		return "@every 1m"
	}
	if settingKey == ENGINE_BATCH_SIZE {
		return "50"
	}
	if settingKey == ENGINE_WORKER_SIZE {
		return "5"
	}
	if settingKey == ENGINE_STALE_CLAIMS_SCHEDULE {
		return "@every 60s"
	}
	if settingKey == ENGINE_STALE_CLAIMS_AFTER_MINUTES {
		return "5"
	}
	if settingKey == ENGINE_SERVER_WEB_PORT {
		return "8080"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./dripflow.db"
	}
	return ""
}
