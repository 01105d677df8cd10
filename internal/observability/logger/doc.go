// Package logger expone el logger zap del servicio con scoping por contexto.
//
// Un único *zap.Logger se construye con Init() al arrancar el proceso. Los
// middlewares HTTP derivan de él un logger "scoped" (request_id, account_id,
// environment_id) y lo inyectan en el contexto; el resto del código lo
// recupera con From(ctx).
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("controller"))
//	log.Warn("connect session rejected", logger.Err(err))
//
// La lógica de dominio (internal/connect) no loguea: el decorator de
// instrumentación es quien emite los eventos de resultado.
package logger
