package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	golambda "github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
)

type ReminderStackProps struct {
	awscdk.StackProps
	// EmailSender is the SES verified identity reminders are mailed from.
	EmailSender string
}

func NewReminderStack(scope constructs.Construct, id string, props *ReminderStackProps) awscdk.Stack {
	var sprops awscdk.StackProps
	emailSender := ""
	if props != nil {
		sprops = props.StackProps
		emailSender = props.EmailSender
	}
	stack := awscdk.NewStack(scope, &id, &sprops)

	// Lambda bundling options
	bundlingOptions := &golambda.BundlingOptions{
		GoBuildFlags: jsii.Strings(`-ldflags "-s -w"`),
		Environment: &map[string]*string{
			"CGO_ENABLED": jsii.String("0"),
		},
	}

	newFunction := func(name, entry string, env map[string]*string) golambda.GoFunction {
		return golambda.NewGoFunction(stack, jsii.String(name), &golambda.GoFunctionProps{
			FunctionName: jsii.String(name),
			Entry:        jsii.String(entry),
			Runtime:      awslambda.Runtime_PROVIDED_AL2(),
			Architecture: awslambda.Architecture_ARM_64(),
			Environment:  &env,
			Bundling:     bundlingOptions,
		})
	}

	// Push notifications topic

	pushTopic := awssns.NewTopic(stack, jsii.String("SR_PushTopic"), &awssns.TopicProps{
		EnforceSSL: jsii.Bool(true),
		TopicName:  jsii.String("SR_PushTopic"),
	})

	// Cognito User Pool, its "sub" is the reminder owner

	userPool := awscognito.NewUserPool(stack, jsii.String("SR_UserPool"), &awscognito.UserPoolProps{
		UserPoolName: jsii.String("SR_UserPool"),
		SignInAliases: &awscognito.SignInAliases{
			Email: jsii.Bool(true),
		},
		SelfSignUpEnabled: jsii.Bool(true),
		AccountRecovery:   awscognito.AccountRecovery_EMAIL_ONLY,
		AutoVerify: &awscognito.AutoVerifiedAttrs{
			Email: jsii.Bool(true),
		},
	})

	_ = awscognito.NewUserPoolClient(stack, jsii.String("SR_UserPoolClient"), &awscognito.UserPoolClientProps{
		UserPool:           userPool,
		UserPoolClientName: jsii.String("SR_UserPoolClient"),
	})

	// Reminders table

	remindersTable := awsdynamodb.NewTable(stack, jsii.String("SR_RemindersTable"), &awsdynamodb.TableProps{
		TableName: jsii.String("SR_RemindersTable"),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("userId"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("reminderId"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		BillingMode:   awsdynamodb.BillingMode_PAY_PER_REQUEST,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	tableEnv := func() map[string]*string {
		return map[string]*string{
			"DYNAMO_TABLE_NAME": remindersTable.TableName(),
		}
	}
	notifierEnv := func(env map[string]*string) map[string]*string {
		env["EMAIL_SENDER"] = jsii.String(emailSender)
		env["PUSH_NOTIFICATION_ARN"] = pushTopic.TopicArn()
		return env
	}
	notifierPolicies := func(fn golambda.GoFunction) {
		fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("ses:SendEmail"),
			Resources: jsii.Strings("*"),
		}))
		// SMS publish has no topic, so the resource can't be narrowed
		fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("sns:Publish"),
			Resources: jsii.Strings("*"),
		}))
	}

	// Reminder Creator Function
	creatorLambda := newFunction("SR_ReminderCreator", "lambdas/reminder-creator", tableEnv())
	creatorLambda.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:PutItem"),
		Resources: jsii.Strings(*remindersTable.TableArn()),
	}))

	// Reminder Lister Function
	listerLambda := newFunction("SR_ReminderLister", "lambdas/reminder-lister", tableEnv())
	listerLambda.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:Query"),
		Resources: jsii.Strings(*remindersTable.TableArn()),
	}))

	// Reminder Editor Function
	editorLambda := newFunction("SR_ReminderEditor", "lambdas/reminder-editor", tableEnv())
	editorLambda.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:UpdateItem"),
		Resources: jsii.Strings(*remindersTable.TableArn()),
	}))

	// Reminder Deleter Function
	deleterLambda := newFunction("SR_ReminderDeleter", "lambdas/reminder-deleter", tableEnv())
	deleterLambda.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:DeleteItem"),
		Resources: jsii.Strings(*remindersTable.TableArn()),
	}))

	// Reminder Cleaner Function, once a day
	cleanerLambda := newFunction("SR_ReminderCleaner", "lambdas/reminder-cleaner", tableEnv())
	cleanerLambda.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:Scan", "dynamodb:BatchWriteItem"),
		Resources: jsii.Strings(*remindersTable.TableArn()),
	}))
	awsevents.NewRule(stack, jsii.String("SR_ReminderCleanerSchedule"), &awsevents.RuleProps{
		Schedule: awsevents.Schedule_Rate(awscdk.Duration_Days(jsii.Number(1))),
		Targets:  &[]awsevents.IRuleTarget{awseventstargets.NewLambdaFunction(cleanerLambda, nil)},
	})

	// Reminder Sender Function, every minute
	senderLambda := newFunction("SR_ReminderSender", "lambdas/reminder-sender", notifierEnv(tableEnv()))
	senderLambda.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:Scan", "dynamodb:UpdateItem"),
		Resources: jsii.Strings(*remindersTable.TableArn()),
	}))
	notifierPolicies(senderLambda)
	awsevents.NewRule(stack, jsii.String("SR_ReminderSenderSchedule"), &awsevents.RuleProps{
		Schedule: awsevents.Schedule_Rate(awscdk.Duration_Minutes(jsii.Number(1))),
		Targets:  &[]awsevents.IRuleTarget{awseventstargets.NewLambdaFunction(senderLambda, nil)},
	})

	// Notification Dispatcher Function, invoked directly
	dispatcherLambda := newFunction("SR_NotificationDispatcher", "lambdas/notification-dispatcher", notifierEnv(map[string]*string{}))
	notifierPolicies(dispatcherLambda)

	// Defining Rest API in API Gateway
	myGateway := awsapigateway.NewRestApi(stack, jsii.String("SR_RestApi"), &awsapigateway.RestApiProps{
		DefaultCorsPreflightOptions: &awsapigateway.CorsOptions{
			AllowOrigins: &[]*string{jsii.String("*")},
			AllowMethods: &[]*string{jsii.String("OPTIONS"), jsii.String("GET"), jsii.String("POST"), jsii.String("PATCH"), jsii.String("DELETE")},
		},
		RestApiName: jsii.String("SR_RestApi"),
	})

	cognitoAuthorizer := awsapigateway.NewCognitoUserPoolsAuthorizer(stack, jsii.String("SR_Authorizer"), &awsapigateway.CognitoUserPoolsAuthorizerProps{
		CognitoUserPools: &[]awscognito.IUserPool{userPool},
	})
	authorized := &awsapigateway.MethodOptions{
		AuthorizationType: awsapigateway.AuthorizationType_COGNITO,
		Authorizer:        cognitoAuthorizer,
	}

	remindersResource := myGateway.Root().AddResource(jsii.String("reminders"), nil)
	remindersResource.AddMethod(jsii.String("POST"), awsapigateway.NewLambdaIntegration(creatorLambda, nil), authorized)
	remindersResource.AddMethod(jsii.String("GET"), awsapigateway.NewLambdaIntegration(listerLambda, nil), authorized)

	reminderIDResource := remindersResource.AddResource(jsii.String("{id}"), nil)
	reminderIDResource.AddMethod(jsii.String("PATCH"), awsapigateway.NewLambdaIntegration(editorLambda, nil), authorized)
	reminderIDResource.AddMethod(jsii.String("DELETE"), awsapigateway.NewLambdaIntegration(deleterLambda, nil), authorized)

	return stack
}

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	emailSender, _ := app.Node().TryGetContext(jsii.String("emailSender")).(string)

	NewReminderStack(app, "SmartReminderStack", &ReminderStackProps{
		StackProps: awscdk.StackProps{
			Env: env(),
		},
		EmailSender: emailSender,
	})

	app.Synth(nil)
}

func env() *awscdk.Environment {
	return nil
}
