// Package mysql 负责建立 MySQL 连接、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"

	"mood_chat_server/internal/config"               // 配置管理
	"mood_chat_server/internal/dao/mysql/repository" // Repository 层
	"mood_chat_server/internal/model"                // 数据模型

	"go.uber.org/zap"                  // 日志库
	mysqldriver "gorm.io/driver/mysql" // GORM MySQL 驱动
	"gorm.io/gorm"                     // GORM ORM 框架
	"gorm.io/gorm/logger"
)

// Init 初始化数据库连接并返回 Repository 层实例
// 执行步骤：
//  1. 从配置读取 MySQL 连接信息，构建 DSN
//  2. 使用 GORM 建立数据库连接
//  3. AutoMigrate 三张表：group_info、group_member、group_message
//  4. 创建并返回带存储超时的 Repository 实例
func Init(conf *config.Config) (*repository.Repositories, error) {
	// 格式：user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User,
		conf.MysqlConfig.Password,
		conf.MysqlConfig.Host,
		conf.MysqlConfig.Port,
		conf.MysqlConfig.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// 如果表不存在则创建，如果字段变更则更新结构
	// 注意：不会删除已有字段或数据
	if err = db.AutoMigrate(
		&model.Group{},        // 群组表
		&model.GroupMember{},  // 群成员表
		&model.GroupMessage{}, // 群消息表
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	zap.L().Info("MySQL 连接成功",
		zap.String("host", conf.MysqlConfig.Host),
		zap.String("database", conf.MysqlConfig.DatabaseName))
	return repository.NewRepositories(db, conf.GroupConfig.StoreTimeout()), nil
}
