// Package main 启动应用程序
package main

import "github.com/yeisme/filevault/pkg/cmd"

//	@title			FileVault API
//	@version		1.0
//	@description	FileVault 是一个混合云文件托管服务：上传实时病毒扫描，主存储（MinIO）落盘后异步同步到备存储（S3），并提供AI内容分析、搜索与统计接口。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
