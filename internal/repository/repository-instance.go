package repository

import "fiscal_service/internal/database/mongo"

type Repositories struct {
	AccessGrantRepository          *AccessGrantRepository
	ResponsibilityCentreRepository *ResponsibilityCentreRepository
	UserAccountRepository          *UserAccountRepository
	RedisRepository                *RedisRepo
}

var Repositories_instance = &Repositories{
	AccessGrantRepository:          NewAccessGrantRepository(mongo.Mongo_Database),
	ResponsibilityCentreRepository: NewResponsibilityCentreRepository(mongo.Mongo_Database),
	UserAccountRepository:          NewUserAccountRepository(mongo.Mongo_Database),
	RedisRepository:                NewRedisRepo(),
}
