package main

import (
	"github.com/ynshung/mynutriapps-server/config"
	"github.com/ynshung/mynutriapps-server/routes"
	"github.com/ynshung/mynutriapps-server/utils"
)

func main() {
	config.InitDB()
	utils.InitS3()
	r := routes.SetupRouter()
	r.Run(":8080")
}
