package xormimplement

import (
	"context"
	"fmt"
	"sync"

	"shopbot/config"
	"shopbot/repository"
	"shopbot/repository/factory"
	"shopbot/repository/interfaces"

	"github.com/sirupsen/logrus"
	"xorm.io/xorm"

	_ "github.com/lib/pq"
)

var once sync.Once
var instance *Factory

type Factory struct {
	engine *xorm.Engine
}

func GetRepositoryFactoryInstance() factory.Factory {
	once.Do(func() {
		instance = &Factory{
			engine: openDB(
				config.GetInstance().GetString(config.BaseDbXormType),
				config.GetInstance().GetString(config.BaseDbXormHost),
				config.GetInstance().GetString(config.BaseDbXormPort),
				config.GetInstance().GetString(config.BaseDbXormUsername),
				config.GetInstance().GetString(config.BaseDbXormName),
				config.GetInstance().GetString(config.BaseDbXormPassword),
				config.GetInstance().GetBool(config.BaseDbXormShowsql),
			),
		}
	})
	return instance
}

func openDB(dbType string, host string, port string, userName string, name string, password string, showSql bool) *xorm.Engine {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jerusalem",
		host,
		userName,
		password,
		name,
		port)
	engine, err := xorm.NewEngine(dbType, dsn)
	if err != nil {
		logrus.Errorf("Database connection failed err: %v. Database name: %s", err, name)
		panic(err)
	}
	engine.ShowSQL(showSql)
	return engine
}

func (f *Factory) NewSession(ctx context.Context) interfaces.Session {
	return &Session{Session: f.engine.NewSession().Context(ctx)}
}

func (f *Factory) NewDocumentRepository(session interfaces.Session) (repository.DocumentRepository, error) {
	if s, ok := session.(*Session); ok {
		return NewDocumentRepository(s), nil
	}
	return nil, fmt.Errorf("failed to unwrap xorm session")
}

func (f *Factory) NewDocumentChunkRepository(session interfaces.Session) (repository.DocumentChunkRepository, error) {
	if s, ok := session.(*Session); ok {
		return NewDocumentChunkRepository(s), nil
	}
	return nil, fmt.Errorf("failed to unwrap xorm session")
}

func (f *Factory) NewMemoryRecordRepository(session interfaces.Session) (repository.MemoryRecordRepository, error) {
	if s, ok := session.(*Session); ok {
		return NewMemoryRecordRepository(s), nil
	}
	return nil, fmt.Errorf("failed to unwrap xorm session")
}
