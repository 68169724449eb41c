package database

const schema = `
CREATE TABLE IF NOT EXISTS otp_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    otp_code TEXT NOT NULL,
    phone_number TEXT,
    service_name TEXT,
    raw_message TEXT,
    observed_at DATETIME NOT NULL,
    delivered BOOLEAN DEFAULT false,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bot_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    stat_name TEXT NOT NULL UNIQUE,
    stat_value TEXT,
    last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_otp_logs_created ON otp_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_otp_logs_delivered ON otp_logs(delivered);
`
