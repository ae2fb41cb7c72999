package database

var MySQLConfig = mysqlConfig
