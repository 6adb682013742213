// schema.go

package db

// 统一的数据库表结构定义

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 账号表
CREATE TABLE IF NOT EXISTS accounts (
    id SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    password VARCHAR(100) NOT NULL,
    email VARCHAR(100) UNIQUE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

-- 玩家累计统计表
CREATE TABLE IF NOT EXISTS player_stats (
    account_id BIGINT REFERENCES accounts(id) ON DELETE CASCADE PRIMARY KEY,
    games_played INT DEFAULT 0,
    total_wins INT DEFAULT 0,
    total_score BIGINT DEFAULT 0,
    best_score BIGINT DEFAULT 0,
    total_correct_answers INT DEFAULT 0,
    longest_streak INT DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

-- 已结束对局归档表
CREATE TABLE IF NOT EXISTS session_records (
    id BIGINT PRIMARY KEY,
    host_id BIGINT REFERENCES accounts(id),
    winner_id BIGINT,
    winning_score BIGINT DEFAULT 0,
    player_count INT DEFAULT 0,
    question_count INT DEFAULT 0,
    started_at TIMESTAMP WITH TIME ZONE,
    ended_at TIMESTAMP WITH TIME ZONE NOT NULL
);

-- 玩家单局结果表
CREATE TABLE IF NOT EXISTS session_results (
    session_id BIGINT REFERENCES session_records(id) ON DELETE CASCADE,
    account_id BIGINT REFERENCES accounts(id) ON DELETE CASCADE,
    display_name VARCHAR(50),
    score BIGINT DEFAULT 0,
    correct_answers INT DEFAULT 0,
    best_streak INT DEFAULT 0,
    is_winner BOOLEAN DEFAULT false,
    PRIMARY KEY (session_id, account_id)
);

-- 创建全局排行榜视图
CREATE OR REPLACE VIEW leaderboard AS
SELECT
    a.id AS account_id,
    a.username,
    s.games_played,
    s.total_wins,
    s.total_score,
    s.best_score,
    s.total_correct_answers,
    s.longest_streak,
    CASE WHEN s.games_played > 0 THEN (s.total_wins * 100.0 / s.games_played) ELSE 0 END AS win_rate
FROM
    accounts a
    JOIN player_stats s ON s.account_id = a.id
ORDER BY
    s.total_score DESC;

-- 创建索引以提高查询性能
CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username);
CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
CREATE INDEX IF NOT EXISTS idx_session_records_host_id ON session_records(host_id);
CREATE INDEX IF NOT EXISTS idx_session_records_ended_at ON session_records(ended_at);
CREATE INDEX IF NOT EXISTS idx_session_results_account_id ON session_results(account_id);
`

// InitAllTables 初始化所有数据库表
func InitAllTables() error {
	_, err := DB.Exec(CreateAllTablesSQL)
	if err != nil {
		return err
	}
	return nil
}
