package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name CacheRepository --dir ../domain/meta --output domain/meta --outpkg metamock --filename cache_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Provider --dir ../domain/meta --output domain/meta --outpkg metamock --filename provider_mock.go
