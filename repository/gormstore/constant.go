package gormstore

const (
	TBL_CONNECTION       string = "tbl_connection"
	TBL_ROUTE            string = "tbl_route"
	TBL_ROUTE_CONNECTION string = "tbl_route_connection"
	TBL_ROUTE_PARAMETER  string = "tbl_route_parameter"
	TBL_JOB              string = "tbl_job"
	TBL_EXECUTION_LOG    string = "tbl_execution_log"
)
